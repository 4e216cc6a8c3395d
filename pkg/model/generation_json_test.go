package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestGenerationRecordJSONRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC)

	previews := []model.Preview{
		&model.AppPreview{Features: []string{"auth", "billing"}, TechStack: []string{"react", "go"}},
		&model.ContentPreview{Pieces: []string{"blog"}, Platforms: []string{"linkedin"}},
		&model.VisualPreview{Assets: []string{"logo"}, Formats: []string{"svg", "png"}},
		&model.CodePreview{Components: []string{"Button"}, Languages: []string{"tsx"}},
		nil,
	}

	for _, p := range previews {
		rec := &model.GenerationRecord{
			ID:          "gen_1",
			Type:        "fullstack-app",
			Title:       "Task tracker",
			Description: "A tracker",
			Files: []*model.FileEntry{
				{Name: "src", Kind: model.FileKindFolder, SizeLabel: "-"},
				{Name: "main.go", Kind: model.FileKindFile, SizeLabel: "2.1 KB"},
			},
			Preview:   p,
			Timestamp: ts,
			Model:     "gemini-2.5-flash",
			Prompt:    "build a tracker",
			Favorite:  true,
		}

		data, err := json.Marshal(rec)
		gt.NoError(t, err)

		var got model.GenerationRecord
		gt.NoError(t, json.Unmarshal(data, &got))

		gt.Equal(t, got.ID, rec.ID)
		gt.Equal(t, got.Title, rec.Title)
		gt.True(t, got.Timestamp.Equal(ts))
		gt.Equal(t, got.Favorite, true)
		gt.A(t, got.Files).Length(2)
		gt.Equal(t, *got.Files[1], *rec.Files[1])
		gt.Equal(t, got.Preview, rec.Preview)
	}
}

func TestGenerationRecordPreviewWireShape(t *testing.T) {
	rec := &model.GenerationRecord{
		ID:        "gen_2",
		Type:      "visual-assets",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Preview:   &model.VisualPreview{Assets: []string{"hero"}},
	}
	data, err := json.Marshal(rec)
	gt.NoError(t, err)

	var raw map[string]any
	gt.NoError(t, json.Unmarshal(data, &raw))
	gt.Equal(t, raw["timestamp"], any("2026-01-02T03:04:05Z"))

	preview, ok := raw["preview"].(map[string]any)
	gt.True(t, ok)
	gt.Equal(t, preview["type"], any("visual"))
	_, hasFeatures := preview["features"]
	gt.False(t, hasFeatures)
}

func TestGenerationRecordUnmarshalRejectsMalformed(t *testing.T) {
	testCases := map[string]string{
		"missing id":        `{"title":"x","timestamp":"2026-01-02T03:04:05Z"}`,
		"missing timestamp": `{"id":"gen_3","title":"x"}`,
		"bad timestamp":     `{"id":"gen_3","timestamp":"yesterday"}`,
		"null file entry":   `{"id":"gen_3","timestamp":"2026-01-02T03:04:05Z","files":[{"name":"a"},null]}`,
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			var rec model.GenerationRecord
			err := json.Unmarshal([]byte(input), &rec)
			gt.Error(t, err)
			gt.True(t, errors.Is(err, model.ErrMalformedRecord))
		})
	}

	t.Run("unknown preview type", func(t *testing.T) {
		var rec model.GenerationRecord
		err := json.Unmarshal([]byte(`{"id":"gen_4","timestamp":"2026-01-02T03:04:05Z","preview":{"type":"hologram"}}`), &rec)
		gt.True(t, errors.Is(err, model.ErrUnknownPreviewType))
	})
}

func TestGenerationRecordClone(t *testing.T) {
	orig := &model.GenerationRecord{
		ID:      "gen_5",
		Files:   []*model.FileEntry{{Name: "a.txt", Kind: model.FileKindFile}},
		Preview: &model.AppPreview{Features: []string{"one"}},
	}

	c := orig.Clone()
	c.Files[0].Name = "b.txt"
	c.Preview.(*model.AppPreview).Features[0] = "two"
	c.Favorite = true

	gt.Equal(t, orig.Files[0].Name, "a.txt")
	gt.Equal(t, orig.Preview.(*model.AppPreview).Features[0], "one")
	gt.False(t, orig.Favorite)

	sparse := &model.GenerationRecord{ID: "gen_6", Files: []*model.FileEntry{nil, {Name: "c.txt"}}}
	files := sparse.Clone().Files
	gt.A(t, files).Length(1)
	gt.Equal(t, files[0].Name, "c.txt")
}

func TestPreviewTypeOf(t *testing.T) {
	gt.Equal(t, model.PreviewTypeOf("fullstack-app"), model.PreviewTypeApp)
	gt.Equal(t, model.PreviewTypeOf("content-pack"), model.PreviewTypeContent)
	gt.Equal(t, model.PreviewTypeOf("brand-kit"), model.PreviewTypeVisual)
	gt.Equal(t, model.PreviewTypeOf("code-component"), model.PreviewTypeCode)
}
