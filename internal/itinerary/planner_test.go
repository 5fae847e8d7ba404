package itinerary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vshankar/margazhi-planner/internal/directions"
	"github.com/vshankar/margazhi-planner/internal/geo"
	"github.com/vshankar/margazhi-planner/internal/schedule"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

type staticResolver struct {
	coords map[string]geo.Coordinate
}

func (r *staticResolver) Resolve(_ context.Context, venue string) (geo.Coordinate, string, error) {
	coord, ok := r.coords[venue]
	if !ok {
		return geo.Coordinate{}, "", geo.ErrVenueNotFound
	}
	return coord, venue, nil
}

type fakeProvider struct {
	fail bool
}

func (p *fakeProvider) Mode() string { return "driving" }

func (p *fakeProvider) Route(_ context.Context, from, to geo.Coordinate) (directions.Leg, error) {
	if p.fail {
		return directions.Leg{}, directions.ErrRouteUnavailable
	}
	km := geo.HaversineKm(from, to)
	return directions.Leg{DistanceKm: km, DurationMin: km * 2, Mode: "driving"}, nil
}

// Venues roughly on a line from north to south so proximity ordering is
// unambiguous.
var testVenues = map[string]geo.Coordinate{
	"North Hall":  {Lat: 13.10, Lon: 80.27},
	"Middle Hall": {Lat: 13.06, Lon: 80.27},
	"South Hall":  {Lat: 13.00, Lon: 80.27},
}

func newTestPlanner(t *testing.T, provider directions.Provider, concertMinutes int) *Planner {
	t.Helper()
	geocoder := geo.NewGeocoder(&staticResolver{coords: testVenues}, nil, logger.Nop())
	return NewPlanner(geocoder, provider, concertMinutes, logger.Nop())
}

func TestPlanRouteOrdersByProximity(t *testing.T) {
	planner := newTestPlanner(t, &fakeProvider{}, 0)

	// Chronological order would visit North, South, Middle. Proximity
	// from the earliest concert gives North, Middle, South.
	selection := []schedule.Concert{
		concertAt(15, 9*60, "A", "North Hall"),
		concertAt(15, 10*60, "B", "South Hall"),
		concertAt(15, 11*60, "C", "Middle Hall"),
	}

	route, err := planner.PlanRoute(context.Background(), selection)
	require.NoError(t, err)
	require.Len(t, route.Days, 1)

	day := route.Days[0]
	require.Len(t, day.Stops, 3)
	assert.Equal(t, "North Hall", day.Stops[0].Venue)
	assert.Equal(t, "Middle Hall", day.Stops[1].Venue)
	assert.Equal(t, "South Hall", day.Stops[2].Venue)

	require.Len(t, day.Transfers, 2)
	assert.False(t, route.Degraded)
	assert.Greater(t, day.TotalKm, 0.0)
}

func TestPlanRouteGroupsByDate(t *testing.T) {
	planner := newTestPlanner(t, &fakeProvider{}, 0)

	selection := []schedule.Concert{
		concertAt(16, 18*60, "B", "South Hall"),
		concertAt(15, 18*60, "A", "North Hall"),
	}

	route, err := planner.PlanRoute(context.Background(), selection)
	require.NoError(t, err)
	require.Len(t, route.Days, 2)

	// Days come out in chronological order regardless of input order.
	assert.Equal(t, 15, route.Days[0].Date.Day())
	assert.Equal(t, 16, route.Days[1].Date.Day())
	assert.Empty(t, route.Days[0].Transfers)
}

func TestPlanRouteUnresolvedVenuesKeptChronologically(t *testing.T) {
	planner := newTestPlanner(t, &fakeProvider{}, 0)

	selection := []schedule.Concert{
		concertAt(15, 9*60, "A", "North Hall"),
		concertAt(15, 10*60, "B", "Mystery Hall"),
		concertAt(15, 11*60, "C", "South Hall"),
	}

	route, err := planner.PlanRoute(context.Background(), selection)
	require.NoError(t, err)
	require.Len(t, route.Days, 1)

	day := route.Days[0]
	require.Len(t, day.Stops, 3)

	// The unresolved venue stays in the plan, at the end of the day.
	last := day.Stops[2]
	assert.Equal(t, "Mystery Hall", last.Venue)
	assert.False(t, last.Resolved)

	// No transfer is priced into or out of an unresolved stop.
	require.Len(t, day.Transfers, 1)
	assert.Equal(t, "North Hall", day.Transfers[0].From)
	assert.Equal(t, "South Hall", day.Transfers[0].To)
}

func TestPlanRouteDegradesOnRoutingFailure(t *testing.T) {
	planner := newTestPlanner(t, &fakeProvider{fail: true}, 0)

	selection := []schedule.Concert{
		concertAt(15, 9*60, "A", "North Hall"),
		concertAt(15, 11*60, "B", "South Hall"),
	}

	route, err := planner.PlanRoute(context.Background(), selection)
	require.NoError(t, err)
	assert.True(t, route.Degraded)

	day := route.Days[0]
	require.Len(t, day.Transfers, 1)
	assert.True(t, day.Transfers[0].Leg.Estimated)
	assert.Greater(t, day.Transfers[0].Leg.DurationMin, 0.0)
}

func TestPlanRouteTightTransferWarnings(t *testing.T) {
	// North to South is about 11 km; the fake provider prices it at
	// roughly 22 minutes.
	t.Run("gap shorter than travel time", func(t *testing.T) {
		planner := newTestPlanner(t, &fakeProvider{}, 120)

		// 9:00 plus two hours leaves a 10-minute gap before 11:10.
		selection := []schedule.Concert{
			concertAt(15, 9*60, "A", "North Hall"),
			concertAt(15, 11*60+10, "B", "South Hall"),
		}

		route, err := planner.PlanRoute(context.Background(), selection)
		require.NoError(t, err)

		require.Len(t, route.Days[0].Transfers, 1)
		assert.True(t, route.Days[0].Transfers[0].Tight)
		require.Len(t, route.Warnings, 1)
		assert.Contains(t, route.Warnings[0], "North Hall")
		assert.Contains(t, route.Warnings[0], "South Hall")
	})

	t.Run("long leg with hours of slack is not tight", func(t *testing.T) {
		planner := newTestPlanner(t, &fakeProvider{}, 120)

		selection := []schedule.Concert{
			concertAt(15, 9*60, "A", "North Hall"),
			concertAt(15, 14*60, "B", "South Hall"),
		}

		route, err := planner.PlanRoute(context.Background(), selection)
		require.NoError(t, err)

		require.Len(t, route.Days[0].Transfers, 1)
		assert.False(t, route.Days[0].Transfers[0].Tight)
		assert.Empty(t, route.Warnings)
	})

	t.Run("unknown start times are never flagged", func(t *testing.T) {
		planner := newTestPlanner(t, &fakeProvider{}, 120)

		selection := []schedule.Concert{
			concertAt(15, 9*60, "A", "North Hall"),
			concertAt(15, -1, "B", "South Hall"),
		}

		route, err := planner.PlanRoute(context.Background(), selection)
		require.NoError(t, err)

		require.Len(t, route.Days[0].Transfers, 1)
		assert.False(t, route.Days[0].Transfers[0].Tight)
		assert.Empty(t, route.Warnings)
	})
}

func TestPlanRouteSameVenueNoTransfer(t *testing.T) {
	planner := newTestPlanner(t, &fakeProvider{}, 0)

	selection := []schedule.Concert{
		concertAt(15, 9*60, "A", "North Hall"),
		concertAt(15, 11*60, "B", "North Hall"),
	}

	route, err := planner.PlanRoute(context.Background(), selection)
	require.NoError(t, err)
	assert.Empty(t, route.Days[0].Transfers)
	assert.Zero(t, route.Days[0].TotalKm)
}

func TestPlanRouteDeterministic(t *testing.T) {
	planner := newTestPlanner(t, &fakeProvider{}, 0)

	selection := []schedule.Concert{
		concertAt(15, 9*60, "A", "North Hall"),
		concertAt(15, 10*60, "B", "South Hall"),
		concertAt(15, 11*60, "C", "Middle Hall"),
		concertAt(16, 9*60, "D", "North Hall"),
	}

	first, err := planner.PlanRoute(context.Background(), selection)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := planner.PlanRoute(context.Background(), selection)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
