// Package mathtex prepares TeX expressions for client-side typesetting.
//
// The server cannot typeset math without a browser. MarkupRenderer checks
// that an expression is well formed and wraps it in \( \) or \[ \]
// delimiters for KaTeX auto-render on the page.
package mathtex

import (
	"errors"
	"html"
	"strings"
)

// Sentinel errors for expression validation.
var (
	ErrEmptyExpression = errors.New("empty math expression")
	ErrUnbalanced      = errors.New("unbalanced braces in math expression")
)

// MarkupRenderer emits delimited TeX for client-side typesetting.
type MarkupRenderer struct{}

// NewMarkupRenderer creates a MarkupRenderer.
func NewMarkupRenderer() *MarkupRenderer {
	return &MarkupRenderer{}
}

// RenderMath validates expr and returns it escaped inside TeX delimiters.
func (r *MarkupRenderer) RenderMath(expr string, display bool) (string, error) {
	if err := Validate(expr); err != nil {
		return "", err
	}
	if display {
		return `\[` + html.EscapeString(expr) + `\]`, nil
	}
	return `\(` + html.EscapeString(expr) + `\)`, nil
}

// Validate reports whether expr is non-empty with balanced braces.
// Escaped braces (\{ and \}) are ignored.
func Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return ErrEmptyExpression
	}

	depth := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return ErrUnbalanced
			}
		}
	}
	if depth != 0 {
		return ErrUnbalanced
	}
	return nil
}
