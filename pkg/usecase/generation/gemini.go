package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flashfusion/forge/pkg/adapter"
	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/utils/logging"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// ErrInvalidResponse is returned when the model output does not match the
// response schema.
var ErrInvalidResponse = goerr.New("invalid generation response")

type geminiFile struct {
	Name string `json:"name" jsonschema:"File or folder name"`
	Type string `json:"type" jsonschema:"Either file or folder"`
	Size string `json:"size" jsonschema:"Human readable size such as 2.4 KB"`
}

type geminiOutput struct {
	Title       string       `json:"title" jsonschema:"Short title of the generated project"`
	Description string       `json:"description" jsonschema:"One or two sentence summary"`
	Files       []geminiFile `json:"files" jsonschema:"Top level files and folders of the project"`
	Highlights  []string     `json:"highlights" jsonschema:"Key features, content pieces, assets or components"`
	Stack       []string     `json:"stack" jsonschema:"Technologies, platforms, formats or languages used"`
}

// GeminiGenerator asks Gemini for a structured generation result.
type GeminiGenerator struct {
	client adapter.Gemini
	schema *genai.Schema
}

func NewGeminiGenerator(client adapter.Gemini) (*GeminiGenerator, error) {
	js, err := jsonschema.For[geminiOutput](nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build response schema")
	}
	schema, err := convertJSONSchemaToGenai(js)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert response schema")
	}

	return &GeminiGenerator{client: client, schema: schema}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationOutput, error) {
	if strings.TrimSpace(cfg.Prompt) == "" {
		return nil, goerr.New("prompt is required", goerr.V("type", cfg.Type))
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction(cfg), ""),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    g.schema,
	}
	contents := []*genai.Content{
		genai.NewContentFromText(cfg.Prompt, genai.RoleUser),
	}

	logging.From(ctx).Debug("requesting generation",
		"model", g.client.Model(), "type", cfg.Type)

	resp, err := g.client.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content",
			goerr.V("model", g.client.Model()), goerr.V("type", cfg.Type))
	}

	text := responseText(resp)
	if text == "" {
		return nil, goerr.Wrap(ErrInvalidResponse, "empty response", goerr.V("model", g.client.Model()))
	}

	var raw geminiOutput
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, goerr.Wrap(ErrInvalidResponse, "failed to decode response", goerr.V("error", err), goerr.V("text", text))
	}
	if raw.Title == "" {
		return nil, goerr.Wrap(ErrInvalidResponse, "title is missing", goerr.V("text", text))
	}

	out := &model.GenerationOutput{
		Title:       raw.Title,
		Description: raw.Description,
		Preview:     previewOf(model.PreviewTypeOf(cfg.Type), raw.Highlights, raw.Stack),
	}
	for _, f := range raw.Files {
		kind := model.FileKindFile
		if f.Type == string(model.FileKindFolder) {
			kind = model.FileKindFolder
		}
		out.Files = append(out.Files, &model.FileEntry{Name: f.Name, Kind: kind, SizeLabel: f.Size})
	}

	return out, nil
}

func systemInstruction(cfg model.GenerationConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You generate %s projects. ", cfg.Type)
	b.WriteString("Describe the project you would build for the user's request and list its top level files. ")
	switch model.PreviewTypeOf(cfg.Type) {
	case model.PreviewTypeApp:
		b.WriteString("highlights are application features, stack is the technology stack.")
	case model.PreviewTypeContent:
		b.WriteString("highlights are content pieces, stack is the target platforms.")
	case model.PreviewTypeVisual:
		b.WriteString("highlights are visual assets, stack is the file formats.")
	default:
		b.WriteString("highlights are code components, stack is the programming languages.")
	}
	for k, v := range cfg.Options {
		fmt.Fprintf(&b, "\nOption %s: %s", k, v)
	}
	return b.String()
}

func previewOf(t model.PreviewType, highlights, stack []string) model.Preview {
	switch t {
	case model.PreviewTypeApp:
		return &model.AppPreview{Features: highlights, TechStack: stack}
	case model.PreviewTypeContent:
		return &model.ContentPreview{Pieces: highlights, Platforms: stack}
	case model.PreviewTypeVisual:
		return &model.VisualPreview{Assets: highlights, Formats: stack}
	default:
		return &model.CodePreview{Components: highlights, Languages: stack}
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
