// Package phone canonicalizes phone strings so two numbers can be compared
// for equality. The normalized form is a comparison key only, never an
// identifier of record.
package phone

import "strings"

// Normalize strips every non-digit character and drops a leading US country
// code when the result is exactly 11 digits starting with 1. Empty or absent
// input yields the empty string, which never matches anything; callers must
// special-case a missing phone as "no match possible".
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		return digits[1:]
	}
	return digits
}
