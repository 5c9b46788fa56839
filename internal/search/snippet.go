package search

import (
	"strings"
	"unicode/utf8"
)

// snippetLength is the rune budget for a content preview.
const snippetLength = 200

// Snippet truncates content for result display, appending an ellipsis
// marker when anything was cut.
func Snippet(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= snippetLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:snippetLength]) + "..."
}
