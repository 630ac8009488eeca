package pipeline

import "regexp"

// crlfOrCR matches Windows and classic Mac line endings.
var crlfOrCR = regexp.MustCompile(`\r\n?`)

// NormalizeLineEndings converts \r\n and \r to \n.
// Every other stage assumes \n line endings.
func NormalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}
