package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/vshankar/margazhi-planner/internal/intent"
	"github.com/vshankar/margazhi-planner/internal/itinerary"
	"github.com/vshankar/margazhi-planner/internal/schedule"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// Reply is the outcome of processing one user message.
type Reply struct {
	Text     string             `json:"text"`
	Concerts []schedule.Concert `json:"concerts,omitempty"`
	Route    *itinerary.Route   `json:"route,omitempty"`
	Kind     intent.Kind        `json:"kind"`
	Followup bool               `json:"followup"`
	Source   string             `json:"source"`
}

// Service orchestrates a conversation turn: interpret, query, refine,
// respond.
type Service struct {
	store       *schedule.Store
	interpreter *intent.Interpreter
	responder   *intent.Responder
	planner     *itinerary.Planner
	sessions    *SessionManager
	defaultMins int
	logger      *logger.Logger
}

// NewService creates the chat service.
func NewService(
	store *schedule.Store,
	interpreter *intent.Interpreter,
	responder *intent.Responder,
	planner *itinerary.Planner,
	sessions *SessionManager,
	defaultConcertMins int,
	log *logger.Logger,
) *Service {
	return &Service{
		store:       store,
		interpreter: interpreter,
		responder:   responder,
		planner:     planner,
		sessions:    sessions,
		defaultMins: defaultConcertMins,
		logger:      log.Named("chat"),
	}
}

// Sessions exposes the session manager for the API layer.
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}

// Process handles one user message in a session.
func (s *Service) Process(ctx context.Context, session *Session, text string) Reply {
	s.sessions.record(session, "user", text)

	minDate, maxDate := s.store.DateRange()
	vocab := intent.Vocabulary{
		Venues:  s.store.Venues(),
		Artists: s.store.Artists(),
		MinDate: minDate,
		MaxDate: maxDate,
	}

	result := s.interpreter.Interpret(ctx, text, vocab)
	s.logger.Debug("Query interpreted",
		logger.String("session_id", session.ID),
		logger.String("kind", string(result.Kind)),
		logger.String("source", result.Source),
		logger.Bool("followup", result.Followup))

	var reply Reply
	switch result.Kind {
	case intent.KindHelp:
		reply = Reply{Text: helpText, Kind: intent.KindHelp, Source: result.Source}
	case intent.KindInfo:
		reply = s.handleInfo(result)
	case intent.KindRoutePlan:
		reply = s.handleRoutePlan(ctx, session, text, result)
	default:
		reply = s.handleSearch(ctx, session, text, result)
	}

	s.sessions.record(session, "assistant", reply.Text)
	return reply
}

func (s *Service) handleSearch(ctx context.Context, session *Session, text string, result intent.Result) Reply {
	previous, _ := session.Recall()
	followup := result.Followup && len(previous) > 0
	source := result.Source

	concerts := s.store.Query(result.Filter)
	if followup && !result.Filter.IsEmpty() {
		concerts = intersect(previous, concerts)
	} else if result.Filter.IsEmpty() {
		// Nothing extractable: fall back to matching the raw text
		// against artists first, then venues.
		source = "fallback"
		concerts = s.store.Query(schedule.Filter{Artist: text})
		if len(concerts) == 0 {
			concerts = s.store.Query(schedule.Filter{Venue: text})
		}
	}

	session.Remember(concerts, result.Filter)

	return Reply{
		Text:     s.responder.Summarize(ctx, text, concerts),
		Concerts: concerts,
		Kind:     intent.KindSearch,
		Followup: followup,
		Source:   source,
	}
}

func (s *Service) handleRoutePlan(ctx context.Context, session *Session, text string, result intent.Result) Reply {
	selection, previousFilter := session.Recall()
	if !result.Filter.IsEmpty() {
		selection = s.store.Query(result.Filter)
		previousFilter = result.Filter
	}
	if len(selection) == 0 {
		return Reply{
			Text:   "I don't have any concerts to plan a route for yet. Search for concerts first, then ask me to plan the route.",
			Kind:   intent.KindRoutePlan,
			Source: result.Source,
		}
	}

	conflicts := itinerary.DetectConflicts(selection, s.defaultMins)
	route, err := s.planner.PlanRoute(ctx, selection)
	if err != nil {
		s.logger.Warn("Route planning failed", logger.Error(err))
		return Reply{
			Text:   "I couldn't plan a route for those concerts. You can still view them as a list.",
			Kind:   intent.KindRoutePlan,
			Source: result.Source,
		}
	}

	session.Remember(selection, previousFilter)

	return Reply{
		Text:     routeSummary(selection, conflicts, &route),
		Concerts: selection,
		Route:    &route,
		Kind:     intent.KindRoutePlan,
		Followup: result.Followup,
		Source:   result.Source,
	}
}

func (s *Service) handleInfo(result intent.Result) Reply {
	minDate, maxDate := s.store.DateRange()
	text := fmt.Sprintf(
		"I know about %d concerts between %s and %s, across %d venues and %d artists. Ask me about a date, an artist, a venue, or an area like Mylapore.",
		s.store.Len(),
		minDate.Format("Jan 2"), maxDate.Format("Jan 2, 2006"),
		len(s.store.Venues()), len(s.store.Artists()))
	return Reply{Text: text, Kind: intent.KindInfo, Source: result.Source}
}

const helpText = `I can help you plan your Margazhi season. Try:
- "Who is singing at Music Academy on Dec 25?"
- "Evening concerts in Mylapore tomorrow"
- "Free concerts next weekend"
- "Plan my route for these" after a search`

func routeSummary(selection []schedule.Concert, conflicts []itinerary.Conflict, route *itinerary.Route) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Planned a route covering %d concert(s) over %d day(s).", len(selection), len(route.Days))
	if len(conflicts) > 0 {
		fmt.Fprintf(&b, " Heads up: %d pair(s) of concerts overlap in time.", len(conflicts))
	}
	if route.Degraded {
		b.WriteString(" Travel times are straight-line estimates.")
	}
	for _, w := range route.Warnings {
		b.WriteString(" Note: " + w + ".")
	}
	return b.String()
}

// intersect keeps the concerts from prev that also appear in next,
// preserving prev's order.
func intersect(prev, next []schedule.Concert) []schedule.Concert {
	keys := make(map[string]struct{}, len(next))
	for _, c := range next {
		keys[concertKey(c)] = struct{}{}
	}

	var out []schedule.Concert
	for _, c := range prev {
		if _, ok := keys[concertKey(c)]; ok {
			out = append(out, c)
		}
	}
	return out
}

func concertKey(c schedule.Concert) string {
	return c.Date.Format("2006-01-02") + "|" + c.RawTime + "|" + c.Artists + "|" + c.Venue
}
