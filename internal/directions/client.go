package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vshankar/margazhi-planner/internal/geo"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// Client fetches routes from an OSRM-compatible routing service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	mode       string
	logger     *logger.Logger
}

// NewClient creates a routing client. baseURL is a format string taking
// lon1, lat1, lon2, lat2.
func NewClient(baseURL, mode string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		mode:       mode,
		logger:     log.Named("directions"),
	}
}

// Mode returns the configured travel mode.
func (c *Client) Mode() string {
	return c.mode
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// Route fetches a route between two coordinates. Returns
// ErrRouteUnavailable when the backend has no route or is unreachable.
func (c *Client) Route(ctx context.Context, from, to geo.Coordinate) (Leg, error) {
	url := fmt.Sprintf(c.baseURL, from.Lon, from.Lat, to.Lon, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Leg{}, fmt.Errorf("failed to create routing request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Routing request failed", logger.Error(err))
		return Leg{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Routing service returned error status",
			logger.Int("status", resp.StatusCode))
		return Leg{}, fmt.Errorf("%w: status %d", ErrRouteUnavailable, resp.StatusCode)
	}

	var decoded routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Leg{}, fmt.Errorf("%w: decode: %v", ErrRouteUnavailable, err)
	}

	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return Leg{}, fmt.Errorf("%w: no route found", ErrRouteUnavailable)
	}

	route := decoded.Routes[0]
	return Leg{
		DistanceKm:  route.Distance / 1000.0,
		DurationMin: route.Duration / 60.0,
		Mode:        c.mode,
		Estimated:   false,
	}, nil
}

// Fallback estimates legs by straight-line distance at a mode speed.
// Used when no routing backend is configured or registered as the
// degraded path behind a Client.
type Fallback struct {
	mode string
}

// NewFallback creates a straight-line leg estimator for the given mode.
func NewFallback(mode string) *Fallback {
	return &Fallback{mode: mode}
}

// Mode returns the configured travel mode.
func (f *Fallback) Mode() string {
	return f.mode
}

// Route estimates a leg without calling any external service.
func (f *Fallback) Route(_ context.Context, from, to geo.Coordinate) (Leg, error) {
	km, minutes := geo.EstimateLeg(from, to, f.mode)
	return Leg{
		DistanceKm:  km,
		DurationMin: minutes,
		Mode:        f.mode,
		Estimated:   true,
	}, nil
}
