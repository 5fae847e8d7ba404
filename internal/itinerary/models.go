package itinerary

import (
	"time"

	"github.com/vshankar/margazhi-planner/internal/directions"
	"github.com/vshankar/margazhi-planner/internal/geo"
	"github.com/vshankar/margazhi-planner/internal/schedule"
)

// Conflict is a pair of selected concerts whose time windows overlap on
// the same date.
type Conflict struct {
	First   schedule.Concert `json:"first"`
	Second  schedule.Concert `json:"second"`
	Date    time.Time        `json:"date"`
	Overlap int              `json:"overlap_minutes"`
}

// Stop is one venue visit on a planned route.
type Stop struct {
	Concert  schedule.Concert `json:"concert"`
	Venue    string           `json:"venue"`
	Coord    geo.Coordinate   `json:"coord"`
	Resolved bool             `json:"resolved"`
}

// Transfer is the travel leg between two consecutive stops.
type Transfer struct {
	From  string         `json:"from"`
	To    string         `json:"to"`
	Leg   directions.Leg `json:"leg"`
	Tight bool           `json:"tight"`
}

// DayPlan is the ordered route for a single date.
type DayPlan struct {
	Date      time.Time  `json:"date"`
	Stops     []Stop     `json:"stops"`
	Transfers []Transfer `json:"transfers"`
	TotalKm   float64    `json:"total_km"`
	TotalMin  float64    `json:"total_min"`
}

// Route is a full multi-day plan for a selection of concerts.
type Route struct {
	Days     []DayPlan `json:"days"`
	Degraded bool      `json:"degraded"`
	Warnings []string  `json:"warnings,omitempty"`
}
