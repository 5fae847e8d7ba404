package schedule

import (
	"time"
)

// Concert is a single schedule entry. The set of concerts is immutable once
// loaded; queries hand out copies of the slice header only.
type Concert struct {
	Date     time.Time `json:"date"`            // calendar date, midnight local
	RawTime  string    `json:"time"`            // time column as published
	Start    int       `json:"start_minutes"`   // minutes since midnight, -1 when unparsable
	Artists  string    `json:"artists"`         // Artist(s) column verbatim
	Details  string    `json:"details"`         // Instruments/Details column
	Venue    string    `json:"venue"`
	Hall     string    `json:"hall,omitempty"`
	Source   string    `json:"source"`   // organizer identifier
	Ticketed string    `json:"ticketed"` // "Free", "Ticketed" or empty
}

// StartTime returns the concert's full start timestamp when the time column
// was parsable.
func (c *Concert) StartTime() (time.Time, bool) {
	if c.Start < 0 {
		return time.Time{}, false
	}
	return c.Date.Add(time.Duration(c.Start) * time.Minute), true
}

// TimeOfDay is a coarse bucket over the concert start time.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"   // [06:00, 12:00)
	Afternoon TimeOfDay = "afternoon" // [12:00, 17:00)
	Evening   TimeOfDay = "evening"   // [17:00, 21:00)
	Night     TimeOfDay = "night"     // [21:00, 24:00)
)

// BucketFor maps minutes-since-midnight onto a bucket. Starts before 06:00
// or unknown starts belong to no bucket.
func BucketFor(startMinutes int) TimeOfDay {
	switch {
	case startMinutes < 0:
		return ""
	case startMinutes >= 6*60 && startMinutes < 12*60:
		return Morning
	case startMinutes >= 12*60 && startMinutes < 17*60:
		return Afternoon
	case startMinutes >= 17*60 && startMinutes < 21*60:
		return Evening
	case startMinutes >= 21*60 && startMinutes < 24*60:
		return Night
	default:
		return ""
	}
}

// ParseTimeOfDay normalizes a bucket word; unknown words yield "".
func ParseTimeOfDay(s string) TimeOfDay {
	switch TimeOfDay(normalizeLower(s)) {
	case Morning:
		return Morning
	case Afternoon:
		return Afternoon
	case Evening:
		return Evening
	case Night:
		return Night
	}
	return ""
}

// Filter selects concerts. All fields are optional; the zero value matches
// every record. Text fields match case-insensitively.
type Filter struct {
	DateFrom  time.Time `json:"date_from,omitempty"` // inclusive
	DateTo    time.Time `json:"date_to,omitempty"`   // inclusive
	Artist    string    `json:"artist,omitempty"`
	Venue     string    `json:"venue,omitempty"`
	Location  string    `json:"location,omitempty"` // area name, matched inside venue
	TimeOfDay TimeOfDay `json:"time_of_day,omitempty"`
	Ticketed  string    `json:"ticketed,omitempty"` // "Free" or "Ticketed"
}

// IsEmpty reports whether no field is set.
func (f Filter) IsEmpty() bool {
	return f.DateFrom.IsZero() && f.DateTo.IsZero() &&
		f.Artist == "" && f.Venue == "" && f.Location == "" &&
		f.TimeOfDay == "" && f.Ticketed == ""
}
