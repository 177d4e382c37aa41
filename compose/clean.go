package compose

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	blockTags   = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/li|/h[1-6])\s*/?>`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	fence       = regexp.MustCompile("^```[a-zA-Z]*\n|\n?```$")
)

// Clean turns a model answer into plain text suitable for typing into the
// editor: markup removed, entities decoded, line breaks normalised, blank
// runs collapsed and surrounding whitespace trimmed.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSpace(s)
	s = fence.ReplaceAllString(s, "")
	s = blockTags.ReplaceAllString(s, "$0\n")
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
