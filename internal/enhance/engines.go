package enhance

import "context"

// Highlighter renders source code to markup.
type Highlighter interface {
	// Supports reports whether lang is a known language.
	Supports(lang string) bool
	// Highlight returns markup with one element of class "line" per line.
	Highlight(source, lang, themeID string) (string, error)
}

// MathRenderer typesets a single expression.
type MathRenderer interface {
	RenderMath(expr string, display bool) (string, error)
}

// DiagramRenderer renders diagram source to markup.
// id is unique per render so repeated renders never collide.
type DiagramRenderer interface {
	RenderDiagram(ctx context.Context, id, source, themeID string) (string, error)
}
