package pipeline

import (
	"regexp"
	"strings"
)

var (
	// headingLine matches a level 1 or level 2 ATX heading.
	headingLine = regexp.MustCompile(`^#{1,2}[ \t]+(.*)$`)

	// closingSequence matches an optional closing run of '#'.
	closingSequence = regexp.MustCompile(`(?:^|[ \t]+)#+[ \t]*$`)
)

// ExtractTitle returns the text of the first level 1 or level 2 heading in
// body. Headings inside fenced code blocks are ignored.
func ExtractTitle(body string) (string, bool) {
	var fence fenceState
	for _, line := range strings.Split(body, "\n") {
		wasOpen := fence.open()
		fence.advance(line)
		if wasOpen || fence.open() {
			continue
		}

		m := headingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(closingSequence.ReplaceAllString(m[1], ""))
		if title != "" {
			return title, true
		}
	}
	return "", false
}
