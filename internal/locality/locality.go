// Package locality normalizes free-form destination strings into canonical
// lookup keys. No geocoding happens here; the keys only need to be stable
// for caching and for querying the rate authority.
package locality

import (
	"regexp"
	"strings"
)

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// Normalize converts a free-form location string into a canonical key:
// a bare 5-digit ZIP becomes "ZIP:<digits>", anything else becomes
// "CITY:<UPPERCASED INPUT>".
func Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	if zipPattern.MatchString(trimmed) {
		return "ZIP:" + trimmed
	}
	return "CITY:" + strings.ToUpper(trimmed)
}

// SearchKey is the rate-authority query derived from a canonical key.
// Exactly one of ZIP or City is populated; State may accompany City.
type SearchKey struct {
	ZIP   string
	City  string
	State string
}

// Split breaks a canonical locality key back into its authority query parts.
// "CITY:AUSTIN, TX" yields City=AUSTIN State=TX; a city without a
// recognizable ", ST" suffix is passed through with an empty state.
func Split(key string) SearchKey {
	switch {
	case strings.HasPrefix(key, "ZIP:"):
		return SearchKey{ZIP: strings.TrimPrefix(key, "ZIP:")}
	case strings.HasPrefix(key, "CITY:"):
		rest := strings.TrimPrefix(key, "CITY:")
		if idx := strings.LastIndex(rest, ","); idx >= 0 {
			state := strings.TrimSpace(rest[idx+1:])
			if len(state) == 2 {
				return SearchKey{City: strings.TrimSpace(rest[:idx]), State: state}
			}
		}
		return SearchKey{City: strings.TrimSpace(rest)}
	}
	return SearchKey{City: strings.TrimSpace(key)}
}
