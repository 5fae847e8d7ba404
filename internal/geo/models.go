package geo

import (
	"errors"
	"regexp"
	"strings"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsZero reports whether the coordinate is unset.
func (c Coordinate) IsZero() bool { return c.Lat == 0 && c.Lon == 0 }

// ErrVenueNotFound means a venue name could not be resolved to a coordinate.
// Callers keep the venue visible in results and leave it out of route
// optimization.
var ErrVenueNotFound = errors.New("venue could not be geocoded")

var venueSpaceRe = regexp.MustCompile(`\s+`)

// CacheKey normalizes a venue name into the key used by both the in-memory
// and persisted coordinate caches.
func CacheKey(venue string) string {
	return venueSpaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(venue)), " ")
}
