// Package stringutil provides utility functions for string manipulation.
package stringutil

import "strings"

// Ellipsis shortens s to at most maxLength runes for single-line display.
// Surrounding spaces are trimmed, newlines become spaces and carriage
// returns are dropped. A truncated string ends in "..." unless maxLength
// is 3 or less, in which case it is cut without one.
func Ellipsis(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")

	if maxLength < 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 { // Not enough space for "..."
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
