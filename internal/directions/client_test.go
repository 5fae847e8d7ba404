package directions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vshankar/margazhi-planner/internal/geo"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

var (
	from = geo.Coordinate{Lat: 13.0481, Lon: 80.2614}
	to   = geo.Coordinate{Lat: 13.0337, Lon: 80.2698}
)

func TestClientRoute(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code": "Ok", "routes": [{"distance": 2500.0, "duration": 480.0}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/route/v1/driving/%f,%f;%f,%f", "driving", 5*time.Second, logger.Nop())
	leg, err := client.Route(context.Background(), from, to)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, leg.DistanceKm, 1e-9)
	assert.InDelta(t, 8.0, leg.DurationMin, 1e-9)
	assert.Equal(t, "driving", leg.Mode)
	assert.False(t, leg.Estimated)
	// Coordinates go lon-first into the URL.
	assert.Contains(t, path, "80.261400,13.048100")
}

func TestClientRouteNoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/route/v1/driving/%f,%f;%f,%f", "driving", 5*time.Second, logger.Nop())
	_, err := client.Route(context.Background(), from, to)
	assert.ErrorIs(t, err, ErrRouteUnavailable)
}

func TestClientRouteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/route/v1/driving/%f,%f;%f,%f", "driving", 5*time.Second, logger.Nop())
	_, err := client.Route(context.Background(), from, to)
	assert.ErrorIs(t, err, ErrRouteUnavailable)
}

func TestClientRouteUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(server.URL+"/route/v1/driving/%f,%f;%f,%f", "driving", time.Second, logger.Nop())
	_, err := client.Route(context.Background(), from, to)
	assert.ErrorIs(t, err, ErrRouteUnavailable)
}

func TestFallbackRoute(t *testing.T) {
	f := NewFallback("walking")
	leg, err := f.Route(context.Background(), from, to)
	require.NoError(t, err)

	assert.True(t, leg.Estimated)
	assert.Equal(t, "walking", leg.Mode)
	assert.Greater(t, leg.DistanceKm, 1.0)
	assert.InDelta(t, leg.DistanceKm/5.0*60, leg.DurationMin, 1e-9)
}
