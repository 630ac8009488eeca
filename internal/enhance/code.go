package enhance

import (
	"strconv"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-mdslides/internal/pipeline"
)

// Classes written by the code stage.
const (
	ClassCodeBlock   = "code-block"
	ClassCodePlain   = "code-plain"
	ClassLineNumbers = "show-line-numbers"
	classLine        = "line"
)

// lineRevealStep staggers the reveal animation of highlighted lines.
const lineRevealStep = 70

var (
	codeSelector    = cascadia.MustCompile("div." + pipeline.CodePlaceholderClass)
	diagramSelector = cascadia.MustCompile("div." + pipeline.DiagramPlaceholderClass)
	lineSelector    = cascadia.MustCompile("." + classLine)
)

type codeBlock struct {
	node *html.Node
	lang string
	code string
}

func (e *Enhancer) enhanceCode(t *Task, v *View, s Settings) {
	var blocks []codeBlock
	v.read(func(root *html.Node) {
		for _, n := range codeSelector.MatchAll(root) {
			lang, _ := pipeline.Attr(n, pipeline.AttrLang)
			code, _ := pipeline.Attr(n, pipeline.AttrCode)
			blocks = append(blocks, codeBlock{node: n, lang: decodeOrRaw(lang), code: decodeOrRaw(code)})
		}
	})
	if len(blocks) == 0 {
		return
	}
	if e.highlighter == nil {
		e.degraded(&e.codeDegraded, "highlighter")
	}

	for _, b := range blocks {
		replacement := e.highlight(b, s)
		v.mutate(t.Relevant, func(*html.Node) bool {
			return replaceNode(b.node, replacement)
		})
	}
}

// highlight returns the node replacing b. Every failure yields a plain block.
func (e *Enhancer) highlight(b codeBlock, s Settings) *html.Node {
	if e.highlighter == nil || b.lang == "" || !e.highlighter.Supports(b.lang) {
		return plainCode(b.code)
	}

	markup, err := e.highlighter.Highlight(b.code, b.lang, s.ThemeID)
	if err != nil {
		e.logger.Debug("highlight failed", zap.String("lang", b.lang), zap.Error(err))
		return plainCode(b.code)
	}
	nodes, err := pipeline.ParseNodes(markup)
	if err != nil {
		return plainCode(b.code)
	}

	class := ClassCodeBlock
	if s.LineNumbers {
		class += " " + ClassLineNumbers
	}
	wrapper := element(atom.Div, "class", class, pipeline.AttrLang, b.lang)
	for _, n := range nodes {
		wrapper.AppendChild(n)
	}
	for i, line := range lineSelector.MatchAll(wrapper) {
		pipeline.SetAttr(line, "data-line", strconv.Itoa(i+1))
		pipeline.SetAttr(line, "style", "animation-delay: "+strconv.Itoa(lineRevealStep*i)+"ms")
	}
	return wrapper
}

// plainCode builds <pre class="code-plain"><code>source</code></pre>.
func plainCode(source string) *html.Node {
	pre := element(atom.Pre, "class", ClassCodePlain)
	code := element(atom.Code)
	code.AppendChild(&html.Node{Type: html.TextNode, Data: source})
	pre.AppendChild(code)
	return pre
}

func decodeOrRaw(s string) string {
	decoded, err := pipeline.DecodePayload(s)
	if err != nil {
		return s
	}
	return decoded
}

// element creates an element node with attributes given as key/value pairs.
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// replaceNode swaps old for repl. It reports false if old is detached.
func replaceNode(old, repl *html.Node) bool {
	parent := old.Parent
	if parent == nil {
		return false
	}
	parent.InsertBefore(repl, old)
	parent.RemoveChild(old)
	return true
}

func countMatches(v *View, sel cascadia.Selector) int {
	var n int
	v.read(func(root *html.Node) {
		n = len(sel.MatchAll(root))
	})
	return n
}
