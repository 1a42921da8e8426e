package domain

import "strings"

const htsDigits = 10

// FormatHTSCode renders an HTS code as XXXX.XX.XXXX. Non-digits are
// dropped, short codes are right-padded with zeros and long codes are
// truncated to ten digits.
func FormatHTSCode(raw string) string {
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
	if len(digits) > htsDigits {
		digits = digits[:htsDigits]
	}
	digits += strings.Repeat("0", htsDigits-len(digits))
	return digits[:4] + "." + digits[4:6] + "." + digits[6:]
}
