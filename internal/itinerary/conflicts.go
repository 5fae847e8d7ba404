package itinerary

import (
	"github.com/vshankar/margazhi-planner/internal/schedule"
)

// DetectConflicts reports every pair of selected concerts on the same
// date whose windows overlap. A concert with an unknown start time never
// conflicts. Windows are half-open: a concert ending exactly when the
// next begins does not conflict.
func DetectConflicts(selection []schedule.Concert, defaultDurationMins int) []Conflict {
	if defaultDurationMins <= 0 {
		defaultDurationMins = 120
	}

	byDate := make(map[string][]schedule.Concert)
	for _, c := range selection {
		if c.Start < 0 {
			continue
		}
		key := c.Date.Format("2006-01-02")
		byDate[key] = append(byDate[key], c)
	}

	var conflicts []Conflict
	for _, concerts := range byDate {
		for i := 0; i < len(concerts); i++ {
			for j := i + 1; j < len(concerts); j++ {
				a, b := concerts[i], concerts[j]
				overlap := overlapMinutes(a.Start, b.Start, defaultDurationMins)
				if overlap <= 0 {
					continue
				}
				conflicts = append(conflicts, Conflict{
					First:   a,
					Second:  b,
					Date:    a.Date,
					Overlap: overlap,
				})
			}
		}
	}
	return conflicts
}

// overlapMinutes computes the overlap of two half-open windows
// [start, start+duration).
func overlapMinutes(aStart, bStart, duration int) int {
	aEnd := aStart + duration
	bEnd := bStart + duration

	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	return end - start
}
