package format

import (
	"fmt"
	"math"
	"strings"
)

// NormalizeCEP strips everything that is not a digit and caps the result at
// 8 digits. This is the only form a CEP takes internally and on the wire.
func NormalizeCEP(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 8 {
				break
			}
		}
	}
	return b.String()
}

// IsCompleteCEP reports whether s contains exactly 8 digits after
// normalization. Registration is refused otherwise.
func IsCompleteCEP(s string) bool {
	return len(NormalizeCEP(s)) == 8
}

// FormatCEPInput applies the as-you-type mask: non-digits are dropped, input
// is capped at 8 digits and a hyphen appears after the 5th digit once more
// than 5 digits are present. "880152OO" therefore renders as "88015-2".
func FormatCEPInput(s string) string {
	digits := NormalizeCEP(s)
	if len(digits) <= 5 {
		return digits
	}
	return digits[:5] + "-" + digits[5:]
}

// DisplayCEP formats a complete 8-digit code as NNNNN-NNN. Incomplete codes
// are returned unchanged so partial data never gains a misleading mask.
func DisplayCEP(s string) string {
	digits := NormalizeCEP(s)
	if len(digits) != 8 {
		return s
	}
	return digits[:5] + "-" + digits[5:]
}

// BRL renders a price in Brazilian currency notation, e.g. 1234567.5 ->
// "R$ 1.234.567,50".
func BRL(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	total := int64(math.Round(v * 100))
	whole := total / 100
	cents := total % 100

	digits := fmt.Sprintf("%d", whole)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	out := fmt.Sprintf("R$ %s,%02d", strings.Join(groups, "."), cents)
	if neg {
		return "-" + out
	}
	return out
}
