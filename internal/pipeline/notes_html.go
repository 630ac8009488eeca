package pipeline

import (
	"context"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// NotesConverter renders speaker notes for the presenter view.
// Notes are shown as-is, without progressive enhancement, so code in notes
// is highlighted inline during conversion.
type NotesConverter struct {
	md goldmark.Markdown
}

// NewNotesConverter creates a NotesConverter using the given chroma style.
func NewNotesConverter(style string) *NotesConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &NotesConverter{md: md}
}

// ToHTML converts notes Markdown to an HTML fragment.
func (c *NotesConverter) ToHTML(ctx context.Context, notes string) (string, error) {
	return convert(ctx, c.md, notes)
}

// Compile-time interface checks.
var (
	_ HTMLConverter = (*GoldmarkConverter)(nil)
	_ HTMLConverter = (*NotesConverter)(nil)
)
