package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vshankar/margazhi-planner/internal/directions"
	"github.com/vshankar/margazhi-planner/internal/geo"
	"github.com/vshankar/margazhi-planner/internal/intent"
	"github.com/vshankar/margazhi-planner/internal/itinerary"
	"github.com/vshankar/margazhi-planner/internal/schedule"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// offlineLLM forces the interpreter and responder onto their deterministic
// fallback paths.
type offlineLLM struct{}

func (offlineLLM) Complete(context.Context, string, string) (string, error) {
	return "", errors.New("llm offline")
}

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

type estimatingProvider struct{}

func (estimatingProvider) Mode() string { return "driving" }

func (estimatingProvider) Route(_ context.Context, from, to geo.Coordinate) (directions.Leg, error) {
	km := geo.HaversineKm(from, to)
	return directions.Leg{DistanceKm: km, DurationMin: km * 2, Mode: "driving"}, nil
}

func day(d int) time.Time {
	return time.Date(2025, time.December, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	concerts := []schedule.Concert{
		{Date: day(15), RawTime: "5:30 PM", Start: 17*60 + 30, Artists: "Mallika Sundar", Venue: "Mylapore Fine Arts Club", Ticketed: "Free"},
		{Date: day(15), RawTime: "4:30 PM", Start: 16*60 + 30, Artists: "Vani Raghav", Venue: "Bharatiya Vidya Bhavan, Mylapore", Ticketed: "Ticketed"},
		{Date: day(15), RawTime: "7:00 PM", Start: 19 * 60, Artists: "Sanjay Subrahmanyan", Venue: "The Music Academy", Ticketed: "Ticketed"},
		{Date: day(16), RawTime: "6:00 PM", Start: 18 * 60, Artists: "Mallika Sundar", Venue: "Vani Mahal", Ticketed: "Free"},
	}
	store := schedule.NewStore(concerts, logger.Nop())

	llm := offlineLLM{}
	interpreter := intent.NewInterpreter(llm, 2025, 10, 10, logger.Nop())
	responder := intent.NewResponder(llm, 10, logger.Nop())

	resolver := &staticResolver{coords: map[string]geo.Coordinate{
		"Mylapore Fine Arts Club":          {Lat: 13.033, Lon: 80.268},
		"Bharatiya Vidya Bhavan, Mylapore": {Lat: 13.034, Lon: 80.266},
		"The Music Academy":                {Lat: 13.048, Lon: 80.261},
		"Vani Mahal":                       {Lat: 13.042, Lon: 80.234},
	}}
	geocoder := geo.NewGeocoder(resolver, nil, logger.Nop())
	planner := itinerary.NewPlanner(geocoder, estimatingProvider{}, 120, logger.Nop())

	sessions := NewSessionManager(time.Hour, 10, logger.Nop())
	return NewService(store, interpreter, responder, planner, sessions, 120, logger.Nop())
}

func TestProcessSearchByArtist(t *testing.T) {
	svc := newTestService(t)
	session := svc.Sessions().Create()

	reply := svc.Process(context.Background(), session, "concerts by Mallika Sundar")

	assert.Equal(t, intent.KindSearch, reply.Kind)
	require.Len(t, reply.Concerts, 2)
	for _, c := range reply.Concerts {
		assert.Equal(t, "Mallika Sundar", c.Artists)
	}
	assert.Contains(t, reply.Text, "2 concert(s)")

	// The turn is remembered for follow-ups.
	remembered, _ := session.Recall()
	assert.Len(t, remembered, 2)
	assert.Len(t, session.History(), 2)
}

func TestProcessLocationAndBucket(t *testing.T) {
	svc := newTestService(t)
	session := svc.Sessions().Create()

	reply := svc.Process(context.Background(), session, "evening concerts in mylapore on Dec 15")

	// 5:30 PM is evening; 4:30 PM at the other Mylapore venue is
	// afternoon and stays out.
	require.Len(t, reply.Concerts, 1)
	assert.Equal(t, "Mallika Sundar", reply.Concerts[0].Artists)
}

func TestProcessMylaporeEveningScenario(t *testing.T) {
	concerts := []schedule.Concert{
		{Date: day(18), RawTime: "5:30 PM", Start: 17*60 + 30, Artists: "Amritha Murali", Venue: "Mylapore Fine Arts Club", Ticketed: "Free"},
		{Date: day(18), RawTime: "7:00 PM", Start: 19 * 60, Artists: "Ramakrishnan Murthy", Venue: "Bharatiya Vidya Bhavan, Mylapore", Ticketed: "Ticketed"},
		{Date: day(18), RawTime: "10:00 AM", Start: 10 * 60, Artists: "Ashwath Narayanan", Venue: "Narada Gana Sabha, Alwarpet", Ticketed: "Free"},
	}
	store := schedule.NewStore(concerts, logger.Nop())

	llm := offlineLLM{}
	interpreter := intent.NewInterpreter(llm, 2025, 10, 10, logger.Nop())
	responder := intent.NewResponder(llm, 10, logger.Nop())
	geocoder := geo.NewGeocoder(&staticResolver{}, nil, logger.Nop())
	planner := itinerary.NewPlanner(geocoder, estimatingProvider{}, 120, logger.Nop())
	sessions := NewSessionManager(time.Hour, 10, logger.Nop())
	svc := NewService(store, interpreter, responder, planner, sessions, 120, logger.Nop())

	session := svc.Sessions().Create()
	reply := svc.Process(context.Background(), session, "Show me concerts near Mylapore on Dec 18 evening")

	// Evening starts at 17:00, so both the 5:30 PM and 7:00 PM
	// Mylapore concerts qualify.
	require.Len(t, reply.Concerts, 2)
	assert.Equal(t, schedule.Evening, schedule.BucketFor(17*60+30))
	assert.Equal(t, schedule.Evening, schedule.BucketFor(19*60))
	for _, c := range reply.Concerts {
		assert.Contains(t, c.Venue, "Mylapore")
	}
}

func TestProcessFollowupRefinesPreviousResults(t *testing.T) {
	svc := newTestService(t)
	session := svc.Sessions().Create()

	first := svc.Process(context.Background(), session, "concerts on Dec 15")
	require.Len(t, first.Concerts, 3)

	second := svc.Process(context.Background(), session, "only the free ones")
	assert.True(t, second.Followup)
	require.Len(t, second.Concerts, 1)
	assert.Equal(t, "Mallika Sundar", second.Concerts[0].Artists)
}

func TestProcessHelp(t *testing.T) {
	svc := newTestService(t)
	session := svc.Sessions().Create()

	reply := svc.Process(context.Background(), session, "what can you do?")
	assert.Equal(t, intent.KindHelp, reply.Kind)
	assert.Contains(t, reply.Text, "Margazhi")
}

func TestProcessInfo(t *testing.T) {
	svc := newTestService(t)
	session := svc.Sessions().Create()

	reply := svc.Process(context.Background(), session, "tell me about the schedule")
	assert.Equal(t, intent.KindInfo, reply.Kind)
	assert.Contains(t, reply.Text, "4 concerts")
}

func TestProcessRoutePlanUsesPreviousResults(t *testing.T) {
	svc := newTestService(t)
	session := svc.Sessions().Create()

	first := svc.Process(context.Background(), session, "concerts on Dec 15")
	require.Len(t, first.Concerts, 3)

	reply := svc.Process(context.Background(), session, "plan my route for these")
	assert.Equal(t, intent.KindRoutePlan, reply.Kind)
	require.NotNil(t, reply.Route)
	require.Len(t, reply.Route.Days, 1)
	assert.Len(t, reply.Route.Days[0].Stops, 3)
	assert.Contains(t, reply.Text, "3 concert(s)")
}

func TestProcessRoutePlanWithoutSelection(t *testing.T) {
	svc := newTestService(t)
	session := svc.Sessions().Create()

	reply := svc.Process(context.Background(), session, "plan my route")
	assert.Equal(t, intent.KindRoutePlan, reply.Kind)
	assert.Nil(t, reply.Route)
	assert.Contains(t, reply.Text, "Search for concerts first")
}

func TestProcessRoutePlanMentionsConflicts(t *testing.T) {
	svc := newTestService(t)
	session := svc.Sessions().Create()

	// 4:30, 5:30 and 7:00 with two-hour windows overlap pairwise.
	svc.Process(context.Background(), session, "concerts on Dec 15")
	reply := svc.Process(context.Background(), session, "plan my route for these")

	assert.Contains(t, reply.Text, "overlap in time")
}

func TestProcessConcurrentTurnsOnOneSession(t *testing.T) {
	svc := newTestService(t)
	session := svc.Sessions().Create()

	queries := []string{
		"concerts on Dec 15",
		"only the free ones",
		"concerts by Mallika Sundar",
		"plan my route for these",
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			svc.Process(context.Background(), session, text)
		}(queries[i%len(queries)])
	}
	wg.Wait()

	// History stays within depth and the remembered results are from
	// one of the turns, whichever finished last.
	assert.LessOrEqual(t, len(session.History()), 10)
	results, _ := session.Recall()
	assert.NotNil(t, results)
}

func TestProcessBareTextFallsBackToNameSearch(t *testing.T) {
	svc := newTestService(t)
	session := svc.Sessions().Create()

	reply := svc.Process(context.Background(), session, "sanjay subrahmanyan")
	require.Len(t, reply.Concerts, 1)
	assert.Equal(t, "Sanjay Subrahmanyan", reply.Concerts[0].Artists)
	assert.Equal(t, "fallback", reply.Source)
}
