package intent

import (
	"time"

	"github.com/vshankar/margazhi-planner/internal/schedule"
)

// Kind classifies what the user is asking for.
type Kind string

const (
	KindSearch    Kind = "search"
	KindRoutePlan Kind = "route_planning"
	KindInfo      Kind = "info"
	KindHelp      Kind = "help"
)

// ParseKind maps a raw intent label to a known Kind, defaulting to search.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindRoutePlan, KindInfo, KindHelp:
		return Kind(s)
	default:
		return KindSearch
	}
}

// extraction is the structured JSON reply expected from the model.
type extraction struct {
	Date      string   `json:"date,omitempty"`
	DateRange []string `json:"date_range,omitempty"`
	Artist    string   `json:"artist,omitempty"`
	Venue     string   `json:"venue,omitempty"`
	Location  string   `json:"location,omitempty"`
	TimeOfDay string   `json:"time_of_day,omitempty"`
	Ticketed  string   `json:"ticketed,omitempty"`
	Intent    string   `json:"intent,omitempty"`
	Followup  bool     `json:"is_followup,omitempty"`
}

// Result is a fully interpreted query: a schedule filter plus routing
// hints for the conversation layer.
type Result struct {
	Filter   schedule.Filter
	Kind     Kind
	Followup bool
	// Source records which interpretation path produced the result:
	// "llm" or "keyword". The conversation layer reports "fallback"
	// instead when it resorted to raw-text matching.
	Source string
}

// Vocabulary grounds the model in the names that actually appear in the
// loaded schedule.
type Vocabulary struct {
	Venues  []string
	Artists []string
	MinDate time.Time
	MaxDate time.Time
}
