package pipeline

import (
	"regexp"
	"strings"
)

// separatorLine matches a line holding only "---" with optional whitespace.
var separatorLine = regexp.MustCompile(`^[ \t]*---[ \t]*$`)

// SplitSlides splits a normalized document into raw slide segments.
//
// A separator line inside a fenced code block does not split: fences opened
// with ``` or ~~~ stay open until a line with at least as many of the same
// character. A document without separators yields exactly one segment.
func SplitSlides(doc string) []string {
	lines := strings.Split(doc, "\n")
	segments := make([]string, 0, 8)
	current := make([]string, 0, len(lines))

	var fence fenceState
	for _, line := range lines {
		fence.advance(line)

		if !fence.open() && separatorLine.MatchString(line) {
			segments = append(segments, strings.Join(current, "\n"))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}

	return append(segments, strings.Join(current, "\n"))
}

// fenceState tracks whether a line-by-line scan is inside a fenced block.
type fenceState struct {
	marker string
}

// advance updates the state with the next line. The opening and closing
// fence lines both count as inside the fence.
func (f *fenceState) advance(line string) {
	marker := fenceMarker(line)
	if marker == "" {
		return
	}
	switch {
	case f.marker == "":
		f.marker = marker
	case marker[0] == f.marker[0] && len(marker) >= len(f.marker) && isClosingFence(line):
		f.marker = ""
	}
}

func (f *fenceState) open() bool { return f.marker != "" }

// fenceMarker returns the run of backticks or tildes opening line, if the
// line starts a fence (at most three spaces of indentation).
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return ""
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return ""
	}
	return trimmed[:n]
}

// isClosingFence reports whether a fence line carries no info string.
func isClosingFence(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.Trim(trimmed, trimmed[:1]) == ""
}
