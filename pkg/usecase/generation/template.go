package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// TemplateGenerator builds generation output from fixed templates. It needs
// no network access and returns the same output for the same input.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Generate(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Prompt) == "" {
		return nil, goerr.New("prompt is required", goerr.V("type", cfg.Type))
	}

	subject := titleFromPrompt(cfg.Prompt)
	out := &model.GenerationOutput{}

	switch model.PreviewTypeOf(cfg.Type) {
	case model.PreviewTypeApp:
		out.Title = subject + " App"
		out.Description = fmt.Sprintf("Full-stack application scaffold for %q with authentication, API and dashboard.", cfg.Prompt)
		out.Files = []*model.FileEntry{
			{Name: "frontend", Kind: model.FileKindFolder, SizeLabel: "-"},
			{Name: "backend", Kind: model.FileKindFolder, SizeLabel: "-"},
			{Name: "package.json", Kind: model.FileKindFile, SizeLabel: "1.2 KB"},
			{Name: "README.md", Kind: model.FileKindFile, SizeLabel: "3.4 KB"},
		}
		out.Preview = &model.AppPreview{
			Features:  []string{"User authentication", "REST API", "Admin dashboard", "Responsive UI"},
			TechStack: []string{"React", "TypeScript", "Node.js", "PostgreSQL"},
		}

	case model.PreviewTypeContent:
		out.Title = subject + " Content Pack"
		out.Description = fmt.Sprintf("Multi-platform content bundle about %q.", cfg.Prompt)
		out.Files = []*model.FileEntry{
			{Name: "blog-post.md", Kind: model.FileKindFile, SizeLabel: "6.8 KB"},
			{Name: "social-posts.md", Kind: model.FileKindFile, SizeLabel: "2.1 KB"},
			{Name: "email.html", Kind: model.FileKindFile, SizeLabel: "4.5 KB"},
		}
		out.Preview = &model.ContentPreview{
			Pieces:    []string{"Blog post", "Social thread", "Newsletter"},
			Platforms: []string{"Blog", "LinkedIn", "X", "Email"},
		}

	case model.PreviewTypeVisual:
		out.Title = subject + " Visual Assets"
		out.Description = fmt.Sprintf("Brand-consistent visual asset set for %q.", cfg.Prompt)
		out.Files = []*model.FileEntry{
			{Name: "logo.svg", Kind: model.FileKindFile, SizeLabel: "12 KB"},
			{Name: "banners", Kind: model.FileKindFolder, SizeLabel: "-"},
			{Name: "palette.json", Kind: model.FileKindFile, SizeLabel: "0.4 KB"},
		}
		out.Preview = &model.VisualPreview{
			Assets:  []string{"Logo", "Social banners", "Color palette"},
			Formats: []string{"SVG", "PNG", "JSON"},
		}

	default:
		out.Title = subject + " Components"
		out.Description = fmt.Sprintf("Reusable code components for %q.", cfg.Prompt)
		out.Files = []*model.FileEntry{
			{Name: "components", Kind: model.FileKindFolder, SizeLabel: "-"},
			{Name: "index.ts", Kind: model.FileKindFile, SizeLabel: "0.8 KB"},
			{Name: "components.test.ts", Kind: model.FileKindFile, SizeLabel: "2.6 KB"},
		}
		out.Preview = &model.CodePreview{
			Components: []string{"Button", "Card", "Modal"},
			Languages:  []string{"TypeScript"},
		}
	}

	return out, nil
}

// titleFromPrompt takes the first few words of prompt in title case
func titleFromPrompt(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 4 {
		words = words[:4]
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
