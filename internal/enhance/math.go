package enhance

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-mdslides/internal/pipeline"
)

// Classes written by the math stage.
const (
	ClassMathRendered = "math-rendered"
	ClassMathInline   = "math-inline"
	ClassMathBlock    = "math-block"
)

// mathPattern matches $$...$$ (may span lines) before $...$ (single line).
var mathPattern = regexp.MustCompile(`\$\$([\s\S]+?)\$\$|\$([^$\n]+?)\$`)

// mathSkipped are elements whose text is never scanned for math.
var mathSkipped = map[atom.Atom]bool{
	atom.Code:     true,
	atom.Pre:      true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Textarea: true,
	atom.Svg:      true,
}

func (e *Enhancer) enhanceMath(t *Task, v *View) {
	var candidates []*html.Node
	v.read(func(root *html.Node) {
		candidates = mathTextNodes(root)
	})
	if len(candidates) == 0 {
		return
	}
	if e.math == nil {
		e.degraded(&e.mathDegraded, "math")
		return
	}

	for _, n := range candidates {
		var text string
		v.read(func(*html.Node) { text = n.Data })

		replacement, ok := e.splitMath(text)
		if !ok {
			continue
		}
		v.mutate(t.Relevant, func(*html.Node) bool {
			parent := n.Parent
			if parent == nil {
				return false
			}
			for _, r := range replacement {
				parent.InsertBefore(r, n)
			}
			parent.RemoveChild(n)
			return true
		})
	}
}

// splitMath renders every expression in text. It returns the nodes that
// replace the text node, or false when text holds no expression.
func (e *Enhancer) splitMath(text string) ([]*html.Node, bool) {
	matches := mathPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, false
	}

	var out []*html.Node
	appendText := func(s string) {
		if s != "" {
			out = append(out, &html.Node{Type: html.TextNode, Data: s})
		}
	}

	last := 0
	for _, m := range matches {
		appendText(text[last:m[0]])
		last = m[1]

		// Group 1 holds a display expression, group 2 an inline one.
		display := m[2] >= 0
		lo, hi := m[4], m[5]
		if display {
			lo, hi = m[2], m[3]
		}
		expr := text[lo:hi]

		if node, err := e.renderMath(strings.TrimSpace(expr), display); err == nil {
			out = append(out, node)
		} else {
			e.logger.Debug("math render failed", zap.String("expr", expr), zap.Error(err))
			appendText(text[m[0]:m[1]])
		}
	}
	appendText(text[last:])

	return mergeText(out), true
}

func (e *Enhancer) renderMath(expr string, display bool) (*html.Node, error) {
	markup, err := e.math.RenderMath(expr, display)
	if err != nil {
		return nil, err
	}
	nodes, err := pipeline.ParseNodes(markup)
	if err != nil {
		return nil, err
	}

	class := ClassMathRendered + " " + ClassMathInline
	if display {
		class = ClassMathRendered + " " + ClassMathBlock
	}
	span := element(atom.Span, "class", class)
	for _, n := range nodes {
		span.AppendChild(n)
	}
	return span, nil
}

// mergeText joins adjacent text nodes left by failed expressions.
func mergeText(nodes []*html.Node) []*html.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if k := len(out); k > 0 && n.Type == html.TextNode && out[k-1].Type == html.TextNode {
			out[k-1].Data += n.Data
			continue
		}
		out = append(out, n)
	}
	return out
}

// mathTextNodes collects text nodes containing '$' outside skipped
// elements and already rendered math.
func mathTextNodes(root *html.Node) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if strings.Contains(n.Data, "$") {
				nodes = append(nodes, n)
			}
			return
		case html.ElementNode:
			if mathSkipped[n.DataAtom] || pipeline.HasClass(n, ClassMathRendered) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return nodes
}
