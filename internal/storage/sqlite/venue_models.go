package sqlite

import "time"

// VenueRecord is a persisted venue-coordinate cache entry. Entries are
// idempotent: re-saving a key with the same coordinate is a no-op.
type VenueRecord struct {
	Key       string    `json:"key"` // normalized venue name
	Venue     string    `json:"venue"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
