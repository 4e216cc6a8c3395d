package model

import (
	"time"

	"github.com/flashfusion/forge/pkg/utils/idgen"
)

type GenerationID string

// NewGenerationID generates a new unique GenerationID
func NewGenerationID() GenerationID {
	return GenerationID(idgen.New("gen"))
}

type FileKind string

const (
	FileKindFile   FileKind = "file"
	FileKindFolder FileKind = "folder"
)

// FileEntry is a manifest line of a generation. It never carries file bytes.
type FileEntry struct {
	Name      string   `json:"name"`
	Kind      FileKind `json:"type"`
	SizeLabel string   `json:"size"`
}

// GenerationRecord is one completed run of the generation flow. Records are
// immutable once created except for Favorite.
type GenerationRecord struct {
	ID          GenerationID
	Type        string
	Title       string
	Description string
	Files       []*FileEntry
	Preview     Preview
	Timestamp   time.Time
	Model       string
	Prompt      string
	Favorite    bool
}

// Clone returns a copy that shares no mutable state with r. Nil file entries
// are dropped.
func (r *GenerationRecord) Clone() *GenerationRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.Files != nil {
		c.Files = make([]*FileEntry, 0, len(r.Files))
		for _, f := range r.Files {
			if f == nil {
				continue
			}
			fc := *f
			c.Files = append(c.Files, &fc)
		}
	}
	if r.Preview != nil {
		c.Preview = r.Preview.clonePreview()
	}
	return &c
}

// GenerationConfig is the input of a generation run
type GenerationConfig struct {
	Type   string
	Prompt string
	Model  string
	// Options are free-form knobs passed through to the generator
	Options map[string]string
}

// GenerationOutput is what a generator produces before the record is stamped
// with an ID, timestamp, model and prompt.
type GenerationOutput struct {
	Title       string
	Description string
	Files       []*FileEntry
	Preview     Preview
}
