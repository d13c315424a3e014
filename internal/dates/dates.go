// Package dates holds the calendar helpers the estimator is built on.
// Engine dates are ISO YYYY-MM-DD strings with no time component.
package dates

import (
	"strings"
	"time"
)

// ISOLayout is the canonical date format used throughout the engine.
const ISOLayout = "2006-01-02"

// layouts tried by Parse, most common first. Receipts are heterogeneous;
// the order matters only for ambiguous inputs, where US month-first wins.
var layouts = []string{
	ISOLayout,
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan. 2, 2006",
}

// Parse attempts to interpret a heterogeneous date string and returns it in
// ISO form. Failure is reported with ok=false, never an error, so callers
// can skip unparseable fragments instead of aborting a whole document.
func Parse(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", false
	}
	// RFC3339 timestamps show up in exported metadata; keep the date part.
	if len(s) > len(ISOLayout) && s[4] == '-' && s[7] == '-' {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Format(ISOLayout), true
		}
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ISOLayout), true
		}
	}
	return "", false
}

// Range enumerates every calendar date from start through end, inclusive.
// An end before start yields an empty slice; ranges never wrap negative.
func Range(start, end string) []string {
	st, err1 := time.Parse(ISOLayout, start)
	en, err2 := time.Parse(ISOLayout, end)
	if err1 != nil || err2 != nil || en.Before(st) {
		return nil
	}
	var out []string
	for d := st; !d.After(en); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(ISOLayout))
	}
	return out
}

// DaysBetween returns the inclusive day count between two ISO dates, or 0
// when either date is malformed or end precedes start.
func DaysBetween(start, end string) int {
	st, err1 := time.Parse(ISOLayout, start)
	en, err2 := time.Parse(ISOLayout, end)
	if err1 != nil || err2 != nil || en.Before(st) {
		return 0
	}
	return int(en.Sub(st).Hours()/24) + 1
}

// YearMonth returns the "YYYY-MM" prefix of an ISO date, used for rate cache
// keys (rates are stable within a calendar month).
func YearMonth(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}

// Year returns the numeric year of an ISO date, or 0 when malformed.
func Year(date string) int {
	t, err := time.Parse(ISOLayout, date)
	if err != nil {
		return 0
	}
	return t.Year()
}

// Today returns the current date in ISO form. Mileage logs are frequently
// dateless summaries; the normalizer stamps those with today.
func Today() string {
	return time.Now().Format(ISOLayout)
}
