// Package money handles integer-cent arithmetic and display formatting.
// Amounts are int64 cents everywhere; floating point appears only at the
// single travel-day percentage step, rounded immediately.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseCurrency converts a "$1,234.56"-style token into integer cents.
// Thousands separators and currency symbols are stripped; malformed input
// yields 0 rather than an error so one bad token cannot abort extraction of
// the rest of a document.
func ParseCurrency(s string) int64 {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return RoundHalfAwayFromZero(f * 100)
}

// FormatCents renders integer cents as a display currency string with
// thousands grouping, e.g. 123456 -> "$1,234.56".
func FormatCents(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	dollars := cents / 100
	rem := cents % 100
	grouped := groupThousands(strconv.FormatInt(dollars, 10))
	out := fmt.Sprintf("$%s.%02d", grouped, rem)
	if neg {
		return "-" + out
	}
	return out
}

// RoundHalfAwayFromZero rounds to the nearest integer cent, halves away
// from zero. This is the engine's single rounding rule.
func RoundHalfAwayFromZero(x float64) int64 {
	if x < 0 {
		return -int64(math.Floor(-x + 0.5))
	}
	return int64(math.Floor(x + 0.5))
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
