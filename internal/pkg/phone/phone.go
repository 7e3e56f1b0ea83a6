// Package phone canonicalizes Indonesian phone numbers into the +62 form
// used as the customer key.
package phone

import "strings"

const (
	minDigits = 9
	maxDigits = 15
)

// Format strips every non-digit and rewrites local prefixes to +62.
// Applying it to an already canonical number returns the same number.
func Format(raw string) string {
	digits := digitsOnly(raw)

	switch {
	case strings.HasPrefix(digits, "08"):
		return "+62" + digits[1:]
	case strings.HasPrefix(digits, "8"):
		return "+62" + digits
	case strings.HasPrefix(digits, "628"):
		return "+" + digits
	case strings.HasPrefix(digits, "62"):
		return "+" + digits
	default:
		return digits
	}
}

// Valid reports whether a canonical number has between 9 and 15 digits.
// Numbers Format left unchanged are valid keys too.
func Valid(canonical string) bool {
	digits := strings.TrimPrefix(canonical, "+")
	if digits != digitsOnly(digits) {
		return false
	}
	return len(digits) >= minDigits && len(digits) <= maxDigits
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
