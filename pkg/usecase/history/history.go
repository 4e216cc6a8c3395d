package history

import (
	"context"
	"sync"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/repository"
	"github.com/flashfusion/forge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// StorageKey is the fixed key holding the serialized collection
	StorageKey = "flashfusion-generation-history"

	// DefaultCapacity is the maximum number of records kept
	DefaultCapacity = 50

	// FallbackCapacity is the number of newest records persisted when a
	// full snapshot does not fit the storage quota
	FallbackCapacity = 10
)

var ErrInvalidRecord = goerr.New("invalid generation record")

// Store is a bounded, newest-first log of generation records persisted to a
// KVStore. The in-memory collection is authoritative: persistence failures
// are logged and never roll back a mutation.
type Store struct {
	mu       sync.RWMutex
	kv       repository.KVStore
	key      string
	capacity int
	fallback int
	records  []*model.GenerationRecord
}

// Option is a functional option for Store
type Option func(*Store)

// WithKey overrides the storage key
func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

// WithCapacity overrides the maximum number of records
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithFallbackCapacity overrides the size of the reduced snapshot written
// after a quota error
func WithFallbackCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.fallback = n
		}
	}
}

// New creates a Store and loads the persisted snapshot once
func New(ctx context.Context, kv repository.KVStore, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		key:      StorageKey,
		capacity: DefaultCapacity,
		fallback: FallbackCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.records = s.load(ctx)
	return s
}

// Add prepends rec and drops the oldest records beyond capacity. A record
// with the same ID is replaced.
func (s *Store) Add(ctx context.Context, rec *model.GenerationRecord) error {
	if rec == nil || rec.ID == "" || rec.Timestamp.IsZero() {
		return goerr.Wrap(ErrInvalidRecord, "id and timestamp are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*model.GenerationRecord, 0, min(len(s.records)+1, s.capacity))
	next = append(next, rec.Clone())
	for _, r := range s.records {
		if len(next) >= s.capacity {
			break
		}
		if r.ID != rec.ID {
			next = append(next, r)
		}
	}
	s.records = next

	s.persist(ctx)
	return nil
}

// Remove deletes the record with id. Missing ids are ignored.
func (s *Store) Remove(ctx context.Context, id model.GenerationID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	s.records = append(s.records[:idx:idx], s.records[idx+1:]...)
	s.persist(ctx)
}

// Clear empties the collection and removes the persisted snapshot
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	if err := s.kv.Delete(ctx, s.key); err != nil {
		logging.From(ctx).Error("failed to delete generation history", "error", err)
	}
}

// ToggleFavorite flips the favorite flag of id and reports whether the
// record exists
func (s *Store) ToggleFavorite(ctx context.Context, id model.GenerationID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}

	updated := s.records[idx].Clone()
	updated.Favorite = !updated.Favorite
	s.records[idx] = updated

	s.persist(ctx)
	return true
}

func (s *Store) indexOf(id model.GenerationID) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
