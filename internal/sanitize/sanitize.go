// Package sanitize normalizes model output before it is stored or rendered.
package sanitize

import (
	"regexp"
	"strings"
)

var lineBreak = regexp.MustCompile(`(?i)<br\s*/?>`)

// Summary replaces HTML line breaks with spaces and collapses all whitespace to single spaces.
func Summary(s string) string {
	return strings.Join(strings.Fields(lineBreak.ReplaceAllString(s, " ")), " ")
}
