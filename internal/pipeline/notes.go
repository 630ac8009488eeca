package pipeline

import (
	"regexp"
	"strings"
)

// NoNotesPlaceholder is returned instead of an empty string so the presenter
// view never shows a blank notes region.
const NoNotesPlaceholder = "No speaker notes for this slide."

var (
	// "::: notes" ... ":::" with the shortest possible body.
	notesBlockPattern = regexp.MustCompile(`(?is):::[ \t]*notes\b(.*?):::`)

	// "Note: text" at the start of a line, including its line break.
	noteLinePattern = regexp.MustCompile(`(?im)^note:(.*)(?:\n|$)`)
)

// ExtractNotes removes speaker notes from a raw slide block.
// Block notes are collected first, then single-line notes; captures are
// trimmed and joined by a blank line. The returned body has every matched
// region removed but is otherwise untouched (callers trim it).
func ExtractNotes(raw string) (body, notes string) {
	var parts []string

	body = notesBlockPattern.ReplaceAllStringFunc(raw, func(m string) string {
		sub := notesBlockPattern.FindStringSubmatch(m)
		if text := strings.TrimSpace(sub[1]); text != "" {
			parts = append(parts, text)
		}
		return ""
	})

	body = noteLinePattern.ReplaceAllStringFunc(body, func(m string) string {
		sub := noteLinePattern.FindStringSubmatch(m)
		if text := strings.TrimSpace(sub[1]); text != "" {
			parts = append(parts, text)
		}
		return ""
	})

	if len(parts) == 0 {
		return body, NoNotesPlaceholder
	}
	return body, strings.Join(parts, "\n\n")
}
