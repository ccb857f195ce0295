// Package parse turns extracted offering-memorandum text into key fields.
//
// Memorandum PDFs render headings with letter-spaced capitals ("B R O O K LY N"),
// so raw extracted text is normalized before any field pattern runs.
package parse

import (
	"regexp"
	"strings"
)

// reUppercaseRun matches a spaced-out sequence of two or more uppercase
// letters: each letter followed by whitespace, terminated by a final letter.
var reUppercaseRun = regexp.MustCompile(`(?:[A-Z]\s+)+[A-Z]`)

// RemoveExtraSpaces replaces newlines with single spaces and deletes the
// spaces inside runs of spaced-out uppercase letters, so "B R O O K LY N"
// becomes "BROOKLYN". Isolated capitals and lower- or mixed-case spaced text
// are left untouched. Pure and idempotent.
func RemoveExtraSpaces(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return reUppercaseRun.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, " ", "")
	})
}
