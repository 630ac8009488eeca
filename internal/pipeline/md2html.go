package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

// GoldmarkConverter converts slide Markdown to an HTML fragment using goldmark.
// Fenced code blocks become placeholder elements; expensive rendering is
// deferred to the enhancement pipeline.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM extensions and
// the placeholder renderer for fenced blocks.
func NewGoldmarkConverter() *GoldmarkConverter {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // Tables, strikethrough, autolinks, task lists
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(), // Treat newlines as <br>
			html.WithXHTML(),     // Self-closing tags
			// No WithUnsafe: slide markup is broadcast to every session.
			renderer.WithNodeRenderers(
				util.Prioritized(&placeholderRenderer{}, 100),
			),
		),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts Markdown content to an HTML fragment.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	return convert(ctx, c.md, content)
}

// convert runs md on content, honoring ctx.
func convert(ctx context.Context, md goldmark.Markdown, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

// placeholderRenderer replaces fenced code blocks with inert elements that
// carry the percent-encoded fence content.
type placeholderRenderer struct{}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *placeholderRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *placeholderRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ast.FencedCodeBlock)
	lang := strings.ToLower(string(n.Language(source)))
	code := fenceContent(n, source)

	if lang == DiagramLanguage {
		_, _ = fmt.Fprintf(w, `<div class="%s" %s="%s"></div>`+"\n",
			DiagramPlaceholderClass, AttrDiagram, EncodePayload(code))
		return ast.WalkSkipChildren, nil
	}

	_, _ = fmt.Fprintf(w, `<div class="%s" %s="%s" %s="%s"></div>`+"\n",
		CodePlaceholderClass, AttrLang, EncodePayload(lang), AttrCode, EncodePayload(code))
	return ast.WalkSkipChildren, nil
}

// fenceContent joins the fence lines, dropping the final line terminator.
func fenceContent(n *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
