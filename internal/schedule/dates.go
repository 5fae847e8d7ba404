package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date expression handling for both the loader (published date columns) and
// the interpreter (user-facing phrases). Yearless expressions resolve against
// the season year; relative expressions resolve against a reference clock so
// they stay deterministic under test.

var columnDateFormats = []string{
	"02-Jan-2006", // the organizer exports use DD-MMM-YYYY
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2 January 2006",
	"Jan 2, 2006",
}

// ParseColumnDate parses the Date column of a schedule file.
func ParseColumnDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range columnDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

var (
	inDaysRe  = regexp.MustCompile(`in\s+(\d+)\s+days?`)
	ordinalRe = regexp.MustCompile(`(\d+)(st|nd|rd|th)\b`)
	rangeRe   = regexp.MustCompile(`(?i)([a-z]+)\s+(\d{1,2})\s*(?:-|to)\s*(\d{1,2})`)
)

var yearlessFormats = []string{
	"Jan 2",
	"January 2",
	"2 Jan",
	"2 January",
}

var datedFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"01-02-2006",
	"02-01-2006",
	"02-Jan-2006",
}

// ParseDate parses a user-facing date expression: explicit dates with or
// without a year ("2025-12-15", "Dec 15", "15th December"), and relative
// forms ("today", "tomorrow", "in 3 days", "next friday", "this saturday").
// Yearless dates land in seasonYear.
func ParseDate(s string, ref time.Time, seasonYear int) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	lower := strings.ToLower(s)

	if t, ok := parseRelativeDate(lower, ref); ok {
		return t, true
	}

	// "15th December" -> "15 December"
	cleaned := ordinalRe.ReplaceAllString(s, "$1")

	for _, layout := range datedFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}
	for _, layout := range yearlessFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return time.Date(seasonYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseDateRange parses range expressions: "Dec 15-20", "December 15 to 20",
// "next week" (next Monday through Sunday), "this weekend" / "next weekend"
// (Saturday and Sunday).
func ParseDateRange(s string, ref time.Time, seasonYear int) (time.Time, time.Time, bool) {
	lower := strings.ToLower(strings.TrimSpace(s))

	if lower == "next week" {
		start := nextWeekday(ref, time.Monday)
		return start, start.AddDate(0, 0, 6), true
	}

	if strings.Contains(lower, "weekend") {
		base := ref
		if strings.Contains(lower, "next") {
			base = ref.AddDate(0, 0, 7)
		}
		sat := upcomingWeekday(base, time.Saturday)
		return sat, sat.AddDate(0, 0, 1), true
	}

	if m := rangeRe.FindStringSubmatch(s); m != nil {
		month, ok := parseMonthName(m[1])
		if ok {
			startDay, _ := strconv.Atoi(m[2])
			endDay, _ := strconv.Atoi(m[3])
			start := time.Date(seasonYear, month, startDay, 0, 0, 0, 0, time.UTC)
			end := time.Date(seasonYear, month, endDay, 0, 0, 0, 0, time.UTC)
			if !end.Before(start) && start.Day() == startDay && end.Day() == endDay {
				return start, end, true
			}
		}
	}
	return time.Time{}, time.Time{}, false
}

func parseRelativeDate(lower string, ref time.Time) (time.Time, bool) {
	day := truncateToDay(ref)
	switch lower {
	case "today":
		return day, true
	case "tomorrow":
		return day.AddDate(0, 0, 1), true
	case "yesterday":
		return day.AddDate(0, 0, -1), true
	}

	if m := inDaysRe.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return day.AddDate(0, 0, n), true
	}

	for name, wd := range weekdayNames {
		if !strings.Contains(lower, name) {
			continue
		}
		if strings.Contains(lower, "next") {
			return nextWeekday(ref, wd), true
		}
		if strings.Contains(lower, "this") {
			return upcomingWeekday(ref, wd), true
		}
	}
	return time.Time{}, false
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

func parseMonthName(s string) (time.Month, bool) {
	s = strings.ToLower(s)
	if len(s) < 3 {
		return 0, false
	}
	abbr := strings.ToUpper(s[:1]) + s[1:3]
	if t, err := time.Parse("Jan", abbr); err == nil {
		return t.Month(), true
	}
	return 0, false
}

// nextWeekday returns the next strictly-future occurrence of wd.
func nextWeekday(ref time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(ref.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return truncateToDay(ref).AddDate(0, 0, days)
}

// upcomingWeekday returns today when today is wd, otherwise the next
// occurrence within this week.
func upcomingWeekday(ref time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(ref.Weekday()) + 7) % 7
	return truncateToDay(ref).AddDate(0, 0, days)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseClock parses a time-of-day column value ("6:45 PM", "18:45") into
// minutes since midnight. Returns -1 when the value has no usable time.
func ParseClock(s string) int {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return -1
	}

	period := ""
	if strings.HasSuffix(s, "AM") || strings.HasSuffix(s, "PM") {
		period = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return -1
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return -1
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return -1
	}

	switch period {
	case "PM":
		if hour != 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	if hour < 0 || hour > 23 {
		return -1
	}
	return hour*60 + minute
}
