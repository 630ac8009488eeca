package pipeline

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses an HTML fragment in a <div> context and returns a
// container node holding the parsed nodes as children.
func ParseFragment(content string) (*html.Node, error) {
	nodes, err := ParseNodes(content)
	if err != nil {
		return nil, err
	}

	// Wrap nodes in a container for uniform traversal
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}

// ParseNodes parses an HTML fragment in a <div> context.
// The returned nodes are detached and can be appended anywhere.
func ParseNodes(content string) ([]*html.Node, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
	}
	return html.ParseFragment(strings.NewReader(content), context)
}

// RenderFragment renders the children of a container built by ParseFragment.
func RenderFragment(container *html.Node) (string, error) {
	var buf strings.Builder
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// Attr returns the value of the named attribute, if present.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n carries the given class.
func HasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	v, _ := Attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}
