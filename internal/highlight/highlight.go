// Package highlight renders source code to HTML with chroma.
package highlight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ErrUnsupportedLanguage is returned for languages without a lexer.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrHighlight indicates tokenizing or formatting failed.
var ErrHighlight = errors.New("highlighting failed")

// StyleFunc maps a theme id to a chroma style name.
type StyleFunc func(themeID string) string

// Chroma highlights code with chroma lexers and the HTML formatter.
// Output uses CSS classes, one span.line per source line.
type Chroma struct {
	style     StyleFunc
	formatter *chromahtml.Formatter
}

// New creates a Chroma highlighter. style may be nil, in which case the
// chroma fallback style is used for every theme.
func New(style StyleFunc) *Chroma {
	if style == nil {
		style = func(string) string { return "" }
	}
	return &Chroma{
		style:     style,
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}
}

// Supports reports whether a lexer exists for lang.
func (c *Chroma) Supports(lang string) bool {
	return lang != "" && lexers.Get(lang) != nil
}

// Highlight renders source as lang with the style of themeID.
func (c *Chroma) Highlight(source, lang, themeID string) (string, error) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}

	var buf strings.Builder
	if err := c.formatter.Format(&buf, c.lookupStyle(themeID), iterator); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	return buf.String(), nil
}

// CSS returns the stylesheet for the classes emitted under themeID.
func (c *Chroma) CSS(themeID string) (string, error) {
	var buf strings.Builder
	if err := c.formatter.WriteCSS(&buf, c.lookupStyle(themeID)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	return buf.String(), nil
}

func (c *Chroma) lookupStyle(themeID string) *chroma.Style {
	return styles.Get(c.style(themeID))
}
