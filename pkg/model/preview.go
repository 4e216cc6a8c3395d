package model

import "slices"

type PreviewType string

const (
	PreviewTypeApp     PreviewType = "app"
	PreviewTypeContent PreviewType = "content"
	PreviewTypeVisual  PreviewType = "visual"
	PreviewTypeCode    PreviewType = "code"
)

// Preview is the type-specific summary of a generation. Exactly one variant
// applies to a record; the set of variants is closed.
type Preview interface {
	PreviewType() PreviewType
	clonePreview() Preview
}

type AppPreview struct {
	Features  []string `json:"features,omitempty"`
	TechStack []string `json:"techStack,omitempty"`
}

type ContentPreview struct {
	Pieces    []string `json:"pieces,omitempty"`
	Platforms []string `json:"platforms,omitempty"`
}

type VisualPreview struct {
	Assets  []string `json:"assets,omitempty"`
	Formats []string `json:"formats,omitempty"`
}

type CodePreview struct {
	Components []string `json:"components,omitempty"`
	Languages  []string `json:"languages,omitempty"`
}

func (*AppPreview) PreviewType() PreviewType     { return PreviewTypeApp }
func (*ContentPreview) PreviewType() PreviewType { return PreviewTypeContent }
func (*VisualPreview) PreviewType() PreviewType  { return PreviewTypeVisual }
func (*CodePreview) PreviewType() PreviewType    { return PreviewTypeCode }

func (p *AppPreview) clonePreview() Preview {
	return &AppPreview{Features: slices.Clone(p.Features), TechStack: slices.Clone(p.TechStack)}
}

func (p *ContentPreview) clonePreview() Preview {
	return &ContentPreview{Pieces: slices.Clone(p.Pieces), Platforms: slices.Clone(p.Platforms)}
}

func (p *VisualPreview) clonePreview() Preview {
	return &VisualPreview{Assets: slices.Clone(p.Assets), Formats: slices.Clone(p.Formats)}
}

func (p *CodePreview) clonePreview() Preview {
	return &CodePreview{Components: slices.Clone(p.Components), Languages: slices.Clone(p.Languages)}
}

// PreviewTypeOf maps a generation category to the preview variant it carries
func PreviewTypeOf(generationType string) PreviewType {
	switch generationType {
	case "fullstack-app", "web-app", "mobile-app", "api-service":
		return PreviewTypeApp
	case "content-pack", "blog-post", "social-campaign", "marketing-copy":
		return PreviewTypeContent
	case "visual-assets", "brand-kit", "image-set":
		return PreviewTypeVisual
	default:
		return PreviewTypeCode
	}
}
