package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday, Dec 10 2025.
var ref = time.Date(2025, time.December, 10, 15, 30, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseColumnDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"15-Dec-2025", date(2025, time.December, 15)},
		{"2025-12-15", date(2025, time.December, 15)},
		{"1 January 2026", date(2026, time.January, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColumnDate(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v", got)
		})
	}

	_, err := ParseColumnDate("not a date")
	assert.Error(t, err)
}

func TestParseDateRelative(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"today", date(2025, time.December, 10)},
		{"tomorrow", date(2025, time.December, 11)},
		{"yesterday", date(2025, time.December, 9)},
		{"in 3 days", date(2025, time.December, 13)},
		{"in 1 day", date(2025, time.December, 11)},
		{"next friday", date(2025, time.December, 12)},
		{"this friday", date(2025, time.December, 12)},
		{"next wednesday", date(2025, time.December, 17)}, // ref is a Wednesday
		{"this wednesday", date(2025, time.December, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in, ref, 2025)
			require.True(t, ok)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestParseDateExplicit(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-12-15", date(2025, time.December, 15)},
		{"Dec 15", date(2025, time.December, 15)},
		{"December 15", date(2025, time.December, 15)},
		{"15 December", date(2025, time.December, 15)},
		{"15th December", date(2025, time.December, 15)},
		{"Jan 2", date(2025, time.January, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in, ref, 2025)
			require.True(t, ok)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}

	_, ok := ParseDate("whenever", ref, 2025)
	assert.False(t, ok)
	_, ok = ParseDate("", ref, 2025)
	assert.False(t, ok)
}

func TestParseDateRange(t *testing.T) {
	t.Run("month day span", func(t *testing.T) {
		from, to, ok := ParseDateRange("Dec 15-20", ref, 2025)
		require.True(t, ok)
		assert.True(t, from.Equal(date(2025, time.December, 15)))
		assert.True(t, to.Equal(date(2025, time.December, 20)))
	})

	t.Run("month day with to", func(t *testing.T) {
		from, to, ok := ParseDateRange("December 15 to 20", ref, 2025)
		require.True(t, ok)
		assert.True(t, from.Equal(date(2025, time.December, 15)))
		assert.True(t, to.Equal(date(2025, time.December, 20)))
	})

	t.Run("next week runs monday through sunday", func(t *testing.T) {
		from, to, ok := ParseDateRange("next week", ref, 2025)
		require.True(t, ok)
		assert.True(t, from.Equal(date(2025, time.December, 15))) // next Monday
		assert.True(t, to.Equal(date(2025, time.December, 21)))
		assert.Equal(t, time.Monday, from.Weekday())
		assert.Equal(t, time.Sunday, to.Weekday())
	})

	t.Run("this weekend", func(t *testing.T) {
		from, to, ok := ParseDateRange("this weekend", ref, 2025)
		require.True(t, ok)
		assert.Equal(t, time.Saturday, from.Weekday())
		assert.True(t, from.Equal(date(2025, time.December, 13)))
		assert.True(t, to.Equal(date(2025, time.December, 14)))
	})

	t.Run("next weekend", func(t *testing.T) {
		from, _, ok := ParseDateRange("next weekend", ref, 2025)
		require.True(t, ok)
		assert.True(t, from.Equal(date(2025, time.December, 20)))
	})

	t.Run("invalid day numbers rejected", func(t *testing.T) {
		_, _, ok := ParseDateRange("Dec 40-45", ref, 2025)
		assert.False(t, ok)
	})

	t.Run("reversed span rejected", func(t *testing.T) {
		_, _, ok := ParseDateRange("Dec 20-15", ref, 2025)
		assert.False(t, ok)
	})
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"6:45 PM", 18*60 + 45},
		{"6:45PM", 18*60 + 45},
		{"12:00 PM", 12 * 60},
		{"12:30 AM", 30},
		{"18:45", 18*60 + 45},
		{"09:00", 9 * 60},
		{"", -1},
		{"TBA", -1},
		{"25:00", -1},
		{"10:75", -1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseClock(tt.in))
		})
	}
}
