// Package isbn canonicalizes book identifiers. Upstream CSV tooling tends to
// run ISBNs through a float column, so "9780439785969" arrives as
// "9780439785969.0"; every boundary that joins on an ISBN must normalize
// first or the join silently loses rows.
package isbn

import "strings"

// Normalize strips surrounding whitespace and a single trailing ".0"
// artifact. It is total and idempotent: non-numeric garbage passes through
// unchanged so callers can detect and discard it themselves.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".0")
	return s
}

// IsNumeric reports whether s is non-empty and consists only of ASCII
// digits. Identifiers that fail this after Normalize are discarded, not
// repaired.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
