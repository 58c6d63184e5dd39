package notify

import "strings"

// NormalizePhone keeps digits only, rewrites a national leading 8 to 7 and makes sure the
// number starts with 7. Returns "" when there are no digits.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if digits[0] == '8' {
		digits = "7" + digits[1:]
	}
	if digits[0] != '7' {
		digits = "7" + digits
	}
	return digits
}
