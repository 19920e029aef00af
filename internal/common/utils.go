package common

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText trims surrounding whitespace and folds the string into
// Unicode NFC so equal Thai names compare equal byte for byte.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return norm.NFC.String(s)
}

// OrDefault returns def when s is empty after normalization.
func OrDefault(s, def string) string {
	if n := NormalizeText(s); n != "" {
		return n
	}
	return def
}

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
