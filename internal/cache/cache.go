// Package cache serves provider flight data through a freshness-checked
// response store and the daily request budget.
package cache

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dharmasatrya/flightgraph/internal/budget"
	"github.com/dharmasatrya/flightgraph/internal/metrics"
	"github.com/dharmasatrya/flightgraph/internal/models"
	"github.com/dharmasatrya/flightgraph/internal/providers"
)

// ResponseStore keeps every provider response. Stale entries are kept and
// simply not returned.
type ResponseStore interface {
	FindFreshest(ctx context.Context, key models.RouteKey, notBefore time.Time) (models.CachedResponse, bool, error)
	Insert(ctx context.Context, resp models.CachedResponse) error
}

type Config struct {
	TTL      time.Duration
	Currency string
	Language string
	Country  string
}

func DefaultConfig() Config {
	return Config{
		TTL:      24 * time.Hour,
		Currency: "USD",
		Language: "en",
		Country:  "us",
	}
}

type FlightCache struct {
	store    ResponseStore
	provider providers.Provider
	guard    *budget.Guard
	config   Config
	now      func() time.Time
	inflight singleflight.Group
}

// NewFlightCache wires the cache. A nil guard disables the budget.
func NewFlightCache(store ResponseStore, provider providers.Provider, guard *budget.Guard, config Config) *FlightCache {
	return &FlightCache{
		store:    store,
		provider: provider,
		guard:    guard,
		config:   config,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (c *FlightCache) WithClock(now func() time.Time) *FlightCache {
	c.now = now
	return c
}

// GetAllFlights returns the provider routes for one exact origin, destination
// and date, calling the provider only when no fresh response is stored.
func (c *FlightCache) GetAllFlights(ctx context.Context, origin, destination, date string) ([]models.FlightRoute, error) {
	key := models.RouteKey{
		Origin:      strings.ToUpper(origin),
		Destination: strings.ToUpper(destination),
		Date:        date,
	}

	now := c.now()
	cached, found, err := c.store.FindFreshest(ctx, key, now.Add(-c.config.TTL))
	if err != nil {
		return nil, fmt.Errorf("cache lookup %s: %w", key, err)
	}
	if found && cached.Fresh(now, c.config.TTL) {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached.Response.Routes(), nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	// Concurrent misses on the same key share one provider call. The shared
	// call runs detached from any one caller; each caller still stops waiting
	// when its own ctx is done.
	shared := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(key.String(), func() (interface{}, error) {
		resp, err := c.fetch(shared, models.ProviderSearchParams{
			DepartureIDs: []string{key.Origin},
			ArrivalIDs:   []string{key.Destination},
			OutboundDate: key.Date,
			Currency:     c.config.Currency,
			Language:     c.config.Language,
			Country:      c.config.Country,
		})
		if err != nil {
			return nil, err
		}

		entry := models.CachedResponse{
			ID:        uuid.NewString(),
			Key:       key,
			Response:  *resp,
			CreatedAt: c.now(),
		}
		if err := c.store.Insert(shared, entry); err != nil {
			log.Printf("Failed to store provider response for %s: %v", key, err)
		}
		return resp.Routes(), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.FlightRoute), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetEdgesForRoute is GetAllFlights converted to graph edges.
func (c *FlightCache) GetEdgesForRoute(ctx context.Context, origin, destination, date string) ([]models.FlightEdge, error) {
	routes, err := c.GetAllFlights(ctx, origin, destination, date)
	if err != nil {
		return nil, err
	}
	return ToEdges(routes, date), nil
}

// GetEdgesBulk asks the provider for every origin/destination combination in
// one request. Bulk responses mix many pairs, so they bypass the store and
// only edges between the requested sets are returned. A single pair goes
// through the cached route lookup instead.
func (c *FlightCache) GetEdgesBulk(ctx context.Context, origins, destinations []string, date string) ([]models.FlightEdge, error) {
	if len(origins) == 0 || len(destinations) == 0 {
		return nil, nil
	}

	params := models.ProviderSearchParams{
		DepartureIDs: upper(origins),
		ArrivalIDs:   upper(destinations),
		OutboundDate: date,
		Currency:     c.config.Currency,
		Language:     c.config.Language,
		Country:      c.config.Country,
	}
	if !params.IsBulk() {
		return c.GetEdgesForRoute(ctx, params.DepartureIDs[0], params.ArrivalIDs[0], date)
	}
	metrics.CacheLookups.WithLabelValues("bulk").Inc()

	resp, err := c.fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	from := toSet(origins)
	to := toSet(destinations)
	all := ToEdges(resp.Routes(), date)
	edges := make([]models.FlightEdge, 0, len(all))
	for _, e := range all {
		if from[e.From] && to[e.To] {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

func (c *FlightCache) fetch(ctx context.Context, params models.ProviderSearchParams) (*models.ProviderResponse, error) {
	if c.guard != nil {
		decision, err := c.guard.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("request budget: %w", err)
		}
		if !decision.Allowed {
			metrics.BudgetDenied.Inc()
			return nil, decision.Err()
		}
	}

	resp, err := c.provider.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func upper(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = strings.ToUpper(c)
	}
	return out
}

func toSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[strings.ToUpper(c)] = true
	}
	return set
}
