package geo

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vshankar/margazhi-planner/pkg/logger"
)

// Resolver is the external name-to-coordinate lookup.
type Resolver interface {
	Resolve(ctx context.Context, venue string) (Coordinate, string, error)
}

// CacheStore is the persisted venue-coordinate cache, read at startup and
// appended to as venues resolve.
type CacheStore interface {
	Lookup(key string) (Coordinate, bool, error)
	Save(key, venue string, coord Coordinate, address string) error
}

// Geocoder resolves venue names through a two-level cache: an in-memory map
// for the session, then the persisted store, then the external resolver.
// Writes are idempotent (a venue always resolves to the same coordinate),
// so concurrent resolvers racing on one key converge without coordination
// beyond the map lock.
type Geocoder struct {
	resolver Resolver
	store    CacheStore // may be nil

	mu  sync.RWMutex
	mem map[string]Coordinate

	logger *logger.Logger
}

// NewGeocoder creates a geocoder over the given resolver and optional
// persisted cache.
func NewGeocoder(resolver Resolver, store CacheStore, log *logger.Logger) *Geocoder {
	return &Geocoder{
		resolver: resolver,
		store:    store,
		mem:      make(map[string]Coordinate),
		logger:   log.Named("geocoder"),
	}
}

// Resolve returns the coordinate for a venue name, consulting caches before
// the external service. A miss everywhere yields ErrVenueNotFound.
func (g *Geocoder) Resolve(ctx context.Context, venue string) (Coordinate, error) {
	key := CacheKey(venue)
	if key == "" {
		return Coordinate{}, ErrVenueNotFound
	}

	g.mu.RLock()
	coord, ok := g.mem[key]
	g.mu.RUnlock()
	if ok {
		return coord, nil
	}

	if g.store != nil {
		coord, found, err := g.store.Lookup(key)
		if err != nil {
			g.logger.Warn("Venue cache lookup failed",
				logger.String("venue", venue),
				logger.Error(err))
		} else if found {
			g.remember(key, coord)
			return coord, nil
		}
	}

	if g.resolver == nil {
		return Coordinate{}, ErrVenueNotFound
	}

	coord, address, err := g.resolver.Resolve(ctx, venue)
	if err != nil {
		if errors.Is(err, ErrVenueNotFound) {
			return Coordinate{}, err
		}
		g.logger.Warn("Geocoding failed",
			logger.String("venue", venue),
			logger.Error(err))
		return Coordinate{}, ErrVenueNotFound
	}

	g.remember(key, coord)
	if g.store != nil {
		if err := g.store.Save(key, venue, coord, address); err != nil {
			g.logger.Warn("Failed to persist venue coordinate",
				logger.String("venue", venue),
				logger.Error(err))
		}
	}
	return coord, nil
}

func (g *Geocoder) remember(key string, coord Coordinate) {
	g.mu.Lock()
	g.mem[key] = coord
	g.mu.Unlock()
}

// Cached returns the coordinate only if it is already known, without
// touching the external service.
func (g *Geocoder) Cached(venue string) (Coordinate, bool) {
	key := CacheKey(venue)

	g.mu.RLock()
	coord, ok := g.mem[key]
	g.mu.RUnlock()
	if ok {
		return coord, true
	}
	if g.store == nil {
		return Coordinate{}, false
	}
	coord, found, err := g.store.Lookup(key)
	if err != nil || !found {
		return Coordinate{}, false
	}
	g.remember(key, coord)
	return coord, true
}

// Warm resolves a batch of venues with bounded parallelism. Misses are not
// errors; only transport-level failures abort the warmup.
func (g *Geocoder) Warm(ctx context.Context, venues []string, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(concurrency)

	for _, venue := range venues {
		venue := venue
		grp.Go(func() error {
			if _, err := g.Resolve(ctx, venue); err != nil && !errors.Is(err, ErrVenueNotFound) {
				return err
			}
			return nil
		})
	}
	return grp.Wait()
}
