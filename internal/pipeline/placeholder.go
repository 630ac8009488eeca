package pipeline

import (
	"net/url"
	"strings"
)

// DiagramLanguage is the fence language routed to the diagram stage.
const DiagramLanguage = "mermaid"

// Placeholder markup emitted by the renderer and consumed by internal/enhance.
const (
	CodePlaceholderClass    = "code-placeholder"
	DiagramPlaceholderClass = "diagram-placeholder"

	AttrCode    = "data-code"
	AttrLang    = "data-lang"
	AttrDiagram = "data-diagram"
)

// EncodePayload percent-encodes s with encodeURIComponent semantics.
// Only ASCII letters, digits and "-_.~" are left as is, so the result is safe
// inside a double-quoted HTML attribute without further escaping.
func EncodePayload(s string) string {
	// QueryEscape escapes '+' itself, so every '+' in its output is a space.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// DecodePayload reverses EncodePayload.
func DecodePayload(s string) (string, error) {
	return url.PathUnescape(s)
}
