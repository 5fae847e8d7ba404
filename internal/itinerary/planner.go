package itinerary

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/vshankar/margazhi-planner/internal/directions"
	"github.com/vshankar/margazhi-planner/internal/geo"
	"github.com/vshankar/margazhi-planner/internal/schedule"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// Planner orders selected concerts into day routes.
type Planner struct {
	geocoder       *geo.Geocoder
	provider       directions.Provider
	concertMinutes int
	logger         *logger.Logger
}

// NewPlanner creates a route planner. concertMinutes is the assumed
// concert duration used to judge how much slack a transfer has; zero or
// negative falls back to two hours.
func NewPlanner(geocoder *geo.Geocoder, provider directions.Provider, concertMinutes int, log *logger.Logger) *Planner {
	if concertMinutes <= 0 {
		concertMinutes = 120
	}
	return &Planner{
		geocoder:       geocoder,
		provider:       provider,
		concertMinutes: concertMinutes,
		logger:         log.Named("planner"),
	}
}

// PlanRoute resolves venues and orders the selection into per-day routes.
// Venues that cannot be geocoded are kept at the end of their day in
// chronological order. Routing failures degrade to straight-line
// estimates rather than failing the plan.
func (p *Planner) PlanRoute(ctx context.Context, selection []schedule.Concert) (Route, error) {
	var route Route

	byDate := make(map[string][]schedule.Concert)
	var dates []string
	for _, c := range selection {
		key := c.Date.Format("2006-01-02")
		if _, seen := byDate[key]; !seen {
			dates = append(dates, key)
		}
		byDate[key] = append(byDate[key], c)
	}
	sort.Strings(dates)

	for _, key := range dates {
		day, degraded, warnings := p.planDay(ctx, byDate[key])
		route.Days = append(route.Days, day)
		route.Degraded = route.Degraded || degraded
		route.Warnings = append(route.Warnings, warnings...)
	}
	return route, nil
}

func (p *Planner) planDay(ctx context.Context, concerts []schedule.Concert) (DayPlan, bool, []string) {
	sortChronological(concerts)

	day := DayPlan{Date: concerts[0].Date}
	var resolved, unresolved []Stop

	for _, c := range concerts {
		stop := Stop{Concert: c, Venue: c.Venue}
		coord, err := p.geocoder.Resolve(ctx, c.Venue)
		if err != nil {
			p.logger.Warn("Venue not resolved, keeping chronological order",
				logger.String("venue", c.Venue))
			unresolved = append(unresolved, stop)
			continue
		}
		stop.Coord = coord
		stop.Resolved = true
		resolved = append(resolved, stop)
	}

	day.Stops = append(orderByProximity(resolved), unresolved...)

	var degraded bool
	var warnings []string
	for i := 0; i+1 < len(day.Stops); i++ {
		from, to := day.Stops[i], day.Stops[i+1]
		if !from.Resolved || !to.Resolved {
			continue
		}
		if from.Coord == to.Coord {
			continue
		}

		leg, err := p.provider.Route(ctx, from.Coord, to.Coord)
		if err != nil {
			if !errors.Is(err, directions.ErrRouteUnavailable) {
				p.logger.Warn("Routing failed", logger.Error(err))
			}
			km, minutes := geo.EstimateLeg(from.Coord, to.Coord, p.provider.Mode())
			leg = directions.Leg{
				DistanceKm:  km,
				DurationMin: minutes,
				Mode:        p.provider.Mode(),
				Estimated:   true,
			}
			degraded = true
		}

		transfer := Transfer{From: from.Venue, To: to.Venue, Leg: leg}
		if gap, ok := transferGap(from.Concert, to.Concert, p.concertMinutes); ok && gap < leg.DurationMin {
			transfer.Tight = true
			warnings = append(warnings, fmt.Sprintf(
				"travel from %s to %s takes about %.0f minutes but only %.0f minutes are free between the concerts",
				from.Venue, to.Venue, leg.DurationMin, math.Max(gap, 0)))
		}
		day.Transfers = append(day.Transfers, transfer)
		day.TotalKm += leg.DistanceKm
		day.TotalMin += leg.DurationMin
	}
	return day, degraded, warnings
}

// transferGap is the free time between one concert's assumed end and the
// next concert's start, in minutes. Unknown start times yield no gap.
func transferGap(from, to schedule.Concert, concertMinutes int) (float64, bool) {
	if from.Start < 0 || to.Start < 0 {
		return 0, false
	}
	return float64(to.Start - (from.Start + concertMinutes)), true
}

// orderByProximity orders stops by nearest neighbour, seeded from the
// earliest concert of the day. Stops at the same coordinate stay in
// chronological order relative to each other.
func orderByProximity(stops []Stop) []Stop {
	if len(stops) <= 2 {
		return stops
	}

	ordered := make([]Stop, 0, len(stops))
	remaining := append([]Stop(nil), stops...)

	// Seed from the earliest start; sortChronological already ran.
	current := remaining[0]
	ordered = append(ordered, current)
	remaining = remaining[1:]

	for len(remaining) > 0 {
		best := 0
		bestKm := geo.HaversineKm(current.Coord, remaining[0].Coord)
		for i := 1; i < len(remaining); i++ {
			km := geo.HaversineKm(current.Coord, remaining[i].Coord)
			if km < bestKm {
				best = i
				bestKm = km
			}
		}
		current = remaining[best]
		ordered = append(ordered, current)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return ordered
}

func sortChronological(concerts []schedule.Concert) {
	sort.SliceStable(concerts, func(i, j int) bool {
		si, sj := concerts[i].Start, concerts[j].Start
		if si < 0 {
			return false
		}
		if sj < 0 {
			return true
		}
		return si < sj
	})
}
