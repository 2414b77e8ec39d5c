// Package textutil provides small text helpers for slugs, whitespace
// normalization, and display truncation.
package textutil

import "strings"

// Slug converts a string to a lowercase filesystem-safe token. Letters are
// lowercased, digits and hyphens are kept, runs of anything else collapse
// to a single hyphen. Returns "untitled" for empty input.
func Slug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "untitled"
	}
	var b strings.Builder
	pendingHyphen := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r + ('a' - 'A'))
		default:
			pendingHyphen = true
		}
	}
	out := b.String()
	if out == "" {
		return "untitled"
	}
	return out
}

// CollapseWhitespace folds all whitespace runs, including newlines, into
// single spaces.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// Truncate shortens value to at most limit runes, appending an ellipsis
// when something was cut. Limits of three or fewer cut without a marker.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
