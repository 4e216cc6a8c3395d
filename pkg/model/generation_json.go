package model

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrMalformedRecord    = goerr.New("malformed generation record")
	ErrUnknownPreviewType = goerr.New("unknown preview type")
)

// recordJSON is the persisted shape of a GenerationRecord. Timestamps are
// kept as RFC 3339 strings so snapshots stay readable by other clients.
type recordJSON struct {
	ID          GenerationID `json:"id"`
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Files       []*FileEntry `json:"files"`
	Preview     *previewJSON `json:"preview"`
	Timestamp   string       `json:"timestamp"`
	Model       string       `json:"model"`
	Prompt      string       `json:"prompt"`
	Favorite    bool         `json:"favorite"`
}

type previewJSON struct {
	Type       PreviewType `json:"type"`
	Features   []string    `json:"features,omitempty"`
	TechStack  []string    `json:"techStack,omitempty"`
	Pieces     []string    `json:"pieces,omitempty"`
	Platforms  []string    `json:"platforms,omitempty"`
	Assets     []string    `json:"assets,omitempty"`
	Formats    []string    `json:"formats,omitempty"`
	Components []string    `json:"components,omitempty"`
	Languages  []string    `json:"languages,omitempty"`
}

func encodePreview(p Preview) *previewJSON {
	switch v := p.(type) {
	case *AppPreview:
		return &previewJSON{Type: PreviewTypeApp, Features: v.Features, TechStack: v.TechStack}
	case *ContentPreview:
		return &previewJSON{Type: PreviewTypeContent, Pieces: v.Pieces, Platforms: v.Platforms}
	case *VisualPreview:
		return &previewJSON{Type: PreviewTypeVisual, Assets: v.Assets, Formats: v.Formats}
	case *CodePreview:
		return &previewJSON{Type: PreviewTypeCode, Components: v.Components, Languages: v.Languages}
	default:
		return nil
	}
}

func (p *previewJSON) decode() (Preview, error) {
	switch p.Type {
	case PreviewTypeApp:
		return &AppPreview{Features: p.Features, TechStack: p.TechStack}, nil
	case PreviewTypeContent:
		return &ContentPreview{Pieces: p.Pieces, Platforms: p.Platforms}, nil
	case PreviewTypeVisual:
		return &VisualPreview{Assets: p.Assets, Formats: p.Formats}, nil
	case PreviewTypeCode:
		return &CodePreview{Components: p.Components, Languages: p.Languages}, nil
	default:
		return nil, goerr.Wrap(ErrUnknownPreviewType, "failed to decode preview", goerr.V("type", p.Type))
	}
}

// MarshalJSON implements json.Marshaler
func (r *GenerationRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(&recordJSON{
		ID:          r.ID,
		Type:        r.Type,
		Title:       r.Title,
		Description: r.Description,
		Files:       r.Files,
		Preview:     encodePreview(r.Preview),
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339Nano),
		Model:       r.Model,
		Prompt:      r.Prompt,
		Favorite:    r.Favorite,
	})
}

// UnmarshalJSON implements json.Unmarshaler. A record without id, with a
// missing or unparsable timestamp or with a null file entry is rejected with
// ErrMalformedRecord.
func (r *GenerationRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return goerr.Wrap(err, "failed to unmarshal generation record")
	}

	if raw.ID == "" {
		return goerr.Wrap(ErrMalformedRecord, "id is missing")
	}
	if raw.Timestamp == "" {
		return goerr.Wrap(ErrMalformedRecord, "timestamp is missing", goerr.V("id", raw.ID))
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.Timestamp)
	if err != nil {
		return goerr.Wrap(ErrMalformedRecord, "timestamp is invalid",
			goerr.V("id", raw.ID), goerr.V("timestamp", raw.Timestamp))
	}

	for i, f := range raw.Files {
		if f == nil {
			return goerr.Wrap(ErrMalformedRecord, "file entry is null", goerr.V("id", raw.ID), goerr.V("index", i))
		}
	}

	var preview Preview
	if raw.Preview != nil {
		preview, err = raw.Preview.decode()
		if err != nil {
			return goerr.Wrap(err, "invalid preview", goerr.V("id", raw.ID))
		}
	}

	*r = GenerationRecord{
		ID:          raw.ID,
		Type:        raw.Type,
		Title:       raw.Title,
		Description: raw.Description,
		Files:       raw.Files,
		Preview:     preview,
		Timestamp:   ts,
		Model:       raw.Model,
		Prompt:      raw.Prompt,
		Favorite:    raw.Favorite,
	}
	return nil
}
