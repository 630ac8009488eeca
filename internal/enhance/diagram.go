package enhance

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mdslides/internal/pipeline"
)

// Classes and attributes written by the diagram stage.
const (
	ClassDiagramError  = "diagram-error"
	ClassDiagramSource = "diagram-source"
	AttrReady          = "data-ready"
	AttrError          = "data-error"
)

type diagram struct {
	node   *html.Node
	source string
}

func (e *Enhancer) enhanceDiagrams(t *Task, v *View, s Settings) {
	if !t.Relevant() {
		return
	}

	var diagrams []diagram
	v.read(func(root *html.Node) {
		for _, n := range diagramSelector.MatchAll(root) {
			raw, _ := pipeline.Attr(n, pipeline.AttrDiagram)
			diagrams = append(diagrams, diagram{node: n, source: decodeOrRaw(raw)})
		}
	})

	if e.diagrams == nil {
		e.degraded(&e.diagramDegraded, "diagram")
		for _, d := range diagrams {
			pre := element(atom.Pre, "class", ClassDiagramSource)
			pre.AppendChild(&html.Node{Type: html.TextNode, Data: d.source})
			v.mutate(t.Relevant, func(*html.Node) bool {
				setContent(d.node, pre)
				return true
			})
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(e.diagramLimit)
	stamp := e.now().UnixNano()
	for i, d := range diagrams {
		id := fmt.Sprintf("diagram-%d-%d-%d", s.SlideID, i, stamp)
		g.Go(func() error {
			e.renderDiagram(t, v, s, id, d)
			return nil
		})
	}
	_ = g.Wait()
}

// renderDiagram renders one diagram. Failures are shown in place.
func (e *Enhancer) renderDiagram(t *Task, v *View, s Settings, id string, d diagram) {
	if !t.Relevant() {
		return
	}

	markup, err := e.diagrams.RenderDiagram(t.ctx, id, d.source, s.ThemeID)
	if err == nil {
		var nodes []*html.Node
		nodes, err = pipeline.ParseNodes(markup)
		if err == nil {
			v.mutate(t.Relevant, func(*html.Node) bool {
				setContent(d.node, nodes...)
				pipeline.SetAttr(d.node, AttrReady, "true")
				return true
			})
			return
		}
	}

	if !t.Relevant() {
		return
	}
	e.logger.Debug("diagram render failed", zap.String("id", id), zap.Error(err))
	pre := element(atom.Pre, "class", ClassDiagramError)
	pre.AppendChild(&html.Node{Type: html.TextNode, Data: err.Error()})
	v.mutate(t.Relevant, func(*html.Node) bool {
		setContent(d.node, pre)
		pipeline.SetAttr(d.node, AttrError, "true")
		return true
	})
}

// setContent replaces the children of n.
func setContent(n *html.Node, children ...*html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	for _, c := range children {
		n.AppendChild(c)
	}
}
