package directions

import (
	"context"
	"errors"

	"github.com/vshankar/margazhi-planner/internal/geo"
)

// ErrRouteUnavailable indicates the routing backend could not produce a
// route for a leg. Callers fall back to straight-line estimates.
var ErrRouteUnavailable = errors.New("route unavailable")

// Leg is a single hop between two venues.
type Leg struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	Mode        string  `json:"mode"`
	Estimated   bool    `json:"estimated"`
}

// Provider computes travel legs between coordinates.
type Provider interface {
	Route(ctx context.Context, from, to geo.Coordinate) (Leg, error)
	Mode() string
}
