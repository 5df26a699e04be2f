package service

import (
	"strings"
	"unicode/utf8"
)

// cleanText trims user-supplied text and drops invalid UTF-8 bytes, which
// Postgres rejects in TEXT columns.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if utf8.ValidString(s) {
		return s
	}
	return strings.TrimSpace(strings.ToValidUTF8(s, ""))
}
