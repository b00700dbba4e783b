package domain

import (
	"fmt"
	"strings"
)

// FormatBRL renders a value as Brazilian currency, e.g. 1234.5 → "R$ 1.234,50".
// Matches the pt-BR formatting the dashboard frontend expects.
func FormatBRL(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := fmt.Sprintf("%.2f", v)
	intPart := s[:len(s)-3]
	decPart := s[len(s)-2:]

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	out := fmt.Sprintf("R$ %s,%s", b.String(), decPart)
	if neg {
		return "-" + out
	}
	return out
}
