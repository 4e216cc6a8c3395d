package history

import (
	"strings"

	"github.com/flashfusion/forge/pkg/model"
)

// List returns every record, newest first
func (s *Store) List() []*model.GenerationRecord {
	return s.filter(func(*model.GenerationRecord) bool { return true })
}

// Len returns the number of records held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record with id, or nil
func (s *Store) Get(id model.GenerationID) *model.GenerationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.records[idx].Clone()
	}
	return nil
}

// Search matches query case-insensitively against title, description and
// prompt. An empty query matches everything.
func (s *Store) Search(query string) []*model.GenerationRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.List()
	}

	return s.filter(func(r *model.GenerationRecord) bool {
		return matchesText(r, q)
	})
}

// matchesText expects q to be trimmed and lower-cased already
func matchesText(r *model.GenerationRecord, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Title), q) ||
		strings.Contains(strings.ToLower(r.Description), q) ||
		strings.Contains(strings.ToLower(r.Prompt), q)
}

// Query combines search text with type and favorite filters. Zero fields
// match everything.
type Query struct {
	Text          string
	Type          string
	FavoritesOnly bool
}

// Find returns the records matching every criterion of q, newest first
func (s *Store) Find(q Query) []*model.GenerationRecord {
	var records []*model.GenerationRecord
	switch {
	case q.FavoritesOnly:
		records = s.Favorites()
	case q.Type != "":
		records = s.FilterByType(q.Type)
	default:
		return s.Search(q.Text)
	}

	text := strings.ToLower(strings.TrimSpace(q.Text))
	matched := records[:0]
	for _, r := range records {
		if q.Type != "" && r.Type != q.Type {
			continue
		}
		if !matchesText(r, text) {
			continue
		}
		matched = append(matched, r)
	}
	return matched
}

// FilterByType returns the records of one generation category
func (s *Store) FilterByType(generationType string) []*model.GenerationRecord {
	return s.filter(func(r *model.GenerationRecord) bool {
		return r.Type == generationType
	})
}

// Favorites returns the records marked as favorite
func (s *Store) Favorites() []*model.GenerationRecord {
	return s.filter(func(r *model.GenerationRecord) bool {
		return r.Favorite
	})
}

// filter returns clones so callers cannot mutate the collection
func (s *Store) filter(match func(*model.GenerationRecord) bool) []*model.GenerationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.GenerationRecord, 0, len(s.records))
	for _, r := range s.records {
		if match(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}
