package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	breakRegex = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li)>`)
	tagRegex   = regexp.MustCompile(`<[^>]*>`)
	spaceRegex = regexp.MustCompile(`[ \t\f\r]+`)
	lineRegex  = regexp.MustCompile(`\n{2,}`)
)

// StripHTML turns an HTML fragment into plain text. Line breaks and block
// ends become newlines; entities are unescaped.
func StripHTML(s string) string {
	s = breakRegex.ReplaceAllString(s, "\n")
	s = tagRegex.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = spaceRegex.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = lineRegex.ReplaceAllString(s, "\n")

	return strings.TrimSpace(s)
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
