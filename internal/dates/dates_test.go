package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2025-06-01", "2025-06-01", true},
		{"06/01/2025", "2025-06-01", true},
		{"6/1/2025", "2025-06-01", true},
		{"6/1/25", "2025-06-01", true},
		{"Jun 1, 2025", "2025-06-01", true},
		{"June 1, 2025", "2025-06-01", true},
		{"01 Jun 2025", "2025-06-01", true},
		{"  2025-06-01  ", "2025-06-01", true},
		{"2025-06-01T14:30:00Z", "2025-06-01", true},
		{"not a date", "", false},
		{"", "", false},
		{"13/45/2025", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Parse(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRange(t *testing.T) {
	days := Range("2025-06-01", "2025-06-05")
	require.Len(t, days, 5)
	assert.Equal(t, "2025-06-01", days[0])
	assert.Equal(t, "2025-06-05", days[4])
}

func TestRangeSingleDay(t *testing.T) {
	days := Range("2025-06-01", "2025-06-01")
	require.Len(t, days, 1)
	assert.Equal(t, "2025-06-01", days[0])
}

func TestRangeReversedIsEmpty(t *testing.T) {
	assert.Empty(t, Range("2025-06-05", "2025-06-01"))
}

func TestRangeCrossesMonthBoundary(t *testing.T) {
	days := Range("2025-06-29", "2025-07-02")
	require.Len(t, days, 4)
	assert.Equal(t, "2025-07-01", days[2])
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 5, DaysBetween("2025-06-01", "2025-06-05"))
	assert.Equal(t, 1, DaysBetween("2025-06-01", "2025-06-01"))
	assert.Equal(t, 0, DaysBetween("2025-06-05", "2025-06-01"))
	assert.Equal(t, 0, DaysBetween("garbage", "2025-06-01"))
}

func TestDaysBetweenMatchesRangeLength(t *testing.T) {
	start, end := "2025-02-26", "2025-03-04"
	assert.Equal(t, len(Range(start, end)), DaysBetween(start, end))
}

func TestYearMonth(t *testing.T) {
	assert.Equal(t, "2025-06", YearMonth("2025-06-15"))
	assert.Equal(t, "bad", YearMonth("bad"))
}

func TestYear(t *testing.T) {
	assert.Equal(t, 2025, Year("2025-06-15"))
	assert.Equal(t, 0, Year("nope"))
}
