// Package aggregator assembles the edge set of one itinerary leg from the
// direct route and the routes through candidate layovers.
package aggregator

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

// EdgeSource is satisfied by cache.FlightCache.
type EdgeSource interface {
	GetEdgesForRoute(ctx context.Context, origin, destination, date string) ([]models.FlightEdge, error)
	GetEdgesBulk(ctx context.Context, origins, destinations []string, date string) ([]models.FlightEdge, error)
}

type Config struct {
	Concurrency int
	// BulkCandidates fetches origin->candidates and candidates->destination
	// with one provider request each instead of one per candidate.
	BulkCandidates bool
}

func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
	}
}

type Aggregator struct {
	source EdgeSource
	config Config
}

type Result struct {
	Edges          []models.FlightEdge
	RoutesQueried  int
	RoutesWithData int
}

func NewAggregator(source EdgeSource, config Config) *Aggregator {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &Aggregator{
		source: source,
		config: config,
	}
}

type routeQuery struct {
	origins      []string
	destinations []string
}

func (q routeQuery) String() string {
	return fmt.Sprintf("%v->%v", q.origins, q.destinations)
}

// CollectLeg fetches every edge the leg origin->destination may use on date.
// Edge order is deterministic: direct edges first, then origin->candidate and
// candidate->destination in candidate order. Any fetch error aborts the leg.
func (a *Aggregator) CollectLeg(ctx context.Context, origin, destination string, candidates []string, date string) (*Result, error) {
	queries := a.plan(origin, destination, candidates)

	results := make([][]models.FlightEdge, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Concurrency)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			edges, err := a.fetch(gctx, q, date)
			if err != nil {
				return fmt.Errorf("fetch %s on %s: %w", q, date, err)
			}
			results[i] = edges
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{RoutesQueried: len(queries)}
	for _, edges := range results {
		if len(edges) > 0 {
			result.RoutesWithData++
		}
		result.Edges = append(result.Edges, edges...)
	}

	log.Printf("Leg %s-%s on %s: %d edges from %d/%d routes (%d candidates)",
		origin, destination, date, len(result.Edges), result.RoutesWithData, result.RoutesQueried, len(candidates))
	return result, nil
}

func (a *Aggregator) plan(origin, destination string, candidates []string) []routeQuery {
	queries := []routeQuery{{origins: []string{origin}, destinations: []string{destination}}}

	var via []string
	for _, c := range candidates {
		if c != origin && c != destination {
			via = append(via, c)
		}
	}
	if len(via) == 0 {
		return queries
	}

	if a.config.BulkCandidates {
		return append(queries,
			routeQuery{origins: []string{origin}, destinations: via},
			routeQuery{origins: via, destinations: []string{destination}},
		)
	}

	for _, c := range via {
		queries = append(queries, routeQuery{origins: []string{origin}, destinations: []string{c}})
	}
	for _, c := range via {
		queries = append(queries, routeQuery{origins: []string{c}, destinations: []string{destination}})
	}
	return queries
}

func (a *Aggregator) fetch(ctx context.Context, q routeQuery, date string) ([]models.FlightEdge, error) {
	if len(q.origins) == 1 && len(q.destinations) == 1 {
		return a.source.GetEdgesForRoute(ctx, q.origins[0], q.destinations[0], date)
	}
	return a.source.GetEdgesBulk(ctx, q.origins, q.destinations, date)
}
