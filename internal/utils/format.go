package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatFloatWithCommas renders 1234567.891 as "1,234,567.89" (for the given
// number of decimals).
func FormatFloatWithCommas(f float64, decimals int) string {
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	pow := math.Pow10(decimals)
	f = math.Round(f*pow) / pow
	s := fmt.Sprintf("%.*f", decimals, f)
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	var frac string
	if len(parts) == 2 {
		frac = parts[1]
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 2)
	b.WriteString(sign)

	if len(intPart) <= 3 {
		b.WriteString(intPart)
	} else {
		rem := len(intPart) % 3
		if rem == 0 {
			rem = 3
		}
		b.WriteString(intPart[:rem])
		for i := rem; i < len(intPart); i += 3 {
			b.WriteByte(',')
			b.WriteString(intPart[i : i+3])
		}
	}

	if decimals > 0 {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// FormatIntWithCommas renders 1234567 as "1,234,567".
func FormatIntWithCommas(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/3)
	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(sign)
	b.WriteString(s[:rem])
	for i := rem; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
