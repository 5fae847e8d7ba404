package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// Client resolves place names against an external geocoding endpoint.
// The endpoint URL is a format string taking one URL-escaped query and must
// return a Nominatim-shaped JSON array.
type Client struct {
	httpClient *http.Client
	baseURL    string
	city       string
	logger     *logger.Logger
}

// NewClient creates a geocoding client.
func NewClient(baseURL, city string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		city:    city,
		logger:  log.Named("geocode-cli"),
	}
}

type geocodeHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve looks a venue name up, first with the configured city appended for
// disambiguation, then bare. A single attempt per query; retry policy is the
// caller's concern.
func (c *Client) Resolve(ctx context.Context, venue string) (Coordinate, string, error) {
	queries := []string{venue + ", " + c.city, venue}
	for _, q := range queries {
		coord, address, found, err := c.lookup(ctx, q)
		if err != nil {
			return Coordinate{}, "", err
		}
		if found {
			return coord, address, nil
		}
	}
	return Coordinate{}, "", fmt.Errorf("%q: %w", venue, ErrVenueNotFound)
}

func (c *Client) lookup(ctx context.Context, query string) (Coordinate, string, bool, error) {
	reqURL := fmt.Sprintf(c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Coordinate{}, "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "margazhi-planner/1.0")

	c.logger.Debug("Geocoding query", logger.String("query", query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Coordinate{}, "", false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinate{}, "", false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinate{}, "", false, fmt.Errorf("failed to read response body: %w", err)
	}

	var hits []geocodeHit
	if err := json.Unmarshal(body, &hits); err != nil {
		return Coordinate{}, "", false, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if len(hits) == 0 {
		return Coordinate{}, "", false, nil
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return Coordinate{}, "", false, fmt.Errorf("bad latitude %q: %w", hits[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return Coordinate{}, "", false, fmt.Errorf("bad longitude %q: %w", hits[0].Lon, err)
	}

	c.logger.Debug("Geocoding hit",
		logger.String("query", query),
		logger.Float64("lat", lat),
		logger.Float64("lon", lon))

	return Coordinate{Lat: lat, Lon: lon}, hits[0].DisplayName, true, nil
}
