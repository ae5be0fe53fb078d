// Package explorer chains per-leg shortest-path searches into a multi-city
// itinerary and drives a search from searching to completed or failed.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightgraph/internal/aggregator"
	"github.com/dharmasatrya/flightgraph/internal/dates"
	"github.com/dharmasatrya/flightgraph/internal/filter"
	"github.com/dharmasatrya/flightgraph/internal/graph"
	"github.com/dharmasatrya/flightgraph/internal/metrics"
	"github.com/dharmasatrya/flightgraph/internal/models"
	"github.com/dharmasatrya/flightgraph/internal/ranking"
	"github.com/dharmasatrya/flightgraph/internal/store"
)

type CandidateSelector interface {
	SelectCandidates(ctx context.Context, originIATA, destinationIATA string) []string
}

type LegCollector interface {
	CollectLeg(ctx context.Context, origin, destination string, candidates []string, date string) (*aggregator.Result, error)
}

type Config struct {
	// DefaultStayDays separates legs when the request gives no layover days.
	DefaultStayDays int
	// MinStayDays is enforced even when the request asks for less.
	MinStayDays int
	// Timeout bounds one exploration; zero means no bound.
	Timeout  time.Duration
	Currency string
	// WriteRetryDelays is waited between attempts at the terminal write.
	WriteRetryDelays []time.Duration
}

func DefaultConfig() Config {
	return Config{
		DefaultStayDays: 1,
		MinStayDays:     1,
		Timeout:         10 * time.Minute,
		Currency:        "USD",
		WriteRetryDelays: []time.Duration{
			100 * time.Millisecond,
			500 * time.Millisecond,
			2 * time.Second,
		},
	}
}

type Explorer struct {
	store     store.SearchStore
	selector  CandidateSelector
	collector LegCollector
	config    Config
	now       func() time.Time
}

func New(searches store.SearchStore, selector CandidateSelector, collector LegCollector, config Config) *Explorer {
	if config.MinStayDays < 0 {
		config.MinStayDays = 0
	}
	return &Explorer{
		store:     searches,
		selector:  selector,
		collector: collector,
		config:    config,
		now:       time.Now,
	}
}

// Explore runs the whole search and records exactly one terminal status.
// The returned error is the failure cause, already persisted as the reason,
// joined with the write error when even the terminal status could not be
// stored.
func (e *Explorer) Explore(ctx context.Context, searchID string, req models.SearchRequest) (err error) {
	started := e.now()
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = e.fail(ctx, searchID, models.ReasonInternal, started, fmt.Errorf("exploration panicked: %v", r))
		}
	}()

	itinerary, err := e.buildItinerary(ctx, searchID, req)
	if err != nil {
		reason := Classify(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = models.ReasonTimeout
		}
		return e.fail(ctx, searchID, reason, started, err)
	}

	err = e.persist(ctx, searchID, func(ctx context.Context) error {
		return e.store.Complete(ctx, *itinerary)
	})
	if err != nil {
		return e.fail(ctx, searchID, models.ReasonInternal, started, fmt.Errorf("store itinerary: %w", err))
	}

	log.Printf("Search %s completed: %d legs, total %.2f %s, %d min",
		searchID, len(itinerary.Legs), itinerary.TotalPrice, itinerary.Currency, itinerary.TotalDuration)
	e.observe(models.StatusCompleted, models.ReasonNone, started)
	return nil
}

// fail writes the failed status even when ctx has expired. A search that is
// already terminal is left as it is.
func (e *Explorer) fail(ctx context.Context, searchID string, reason models.FailureReason, started time.Time, cause error) error {
	log.Printf("Search %s failed (%s): %v", searchID, reason, cause)

	err := e.persist(ctx, searchID, func(ctx context.Context) error {
		return e.store.UpdateStatus(ctx, searchID, models.StatusFailed, reason)
	})
	switch {
	case err == nil:
		e.observe(models.StatusFailed, reason, started)
	case errors.Is(err, store.ErrInvalidTransition):
		log.Printf("Search %s was already terminal", searchID)
	default:
		log.Printf("Search %s: failed to set status failed: %v", searchID, err)
		return errors.Join(cause, fmt.Errorf("set status failed: %w", err))
	}
	return cause
}

// persist retries a terminal write on the configured delays. Missing
// searches and invalid transitions are final and not retried.
func (e *Explorer) persist(ctx context.Context, searchID string, write func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		persistCtx, cancel := persistContext(ctx)
		err := write(persistCtx)
		cancel()

		if err == nil || errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidTransition) {
			return err
		}
		if attempt >= len(e.config.WriteRetryDelays) {
			return err
		}
		log.Printf("Search %s: write attempt %d failed, retrying: %v", searchID, attempt+1, err)
		time.Sleep(e.config.WriteRetryDelays[attempt])
	}
}

func (e *Explorer) observe(status models.SearchStatus, reason models.FailureReason, started time.Time) {
	metrics.SearchesTotal.WithLabelValues(string(status), string(reason)).Inc()
	metrics.ExplorationDuration.Observe(e.now().Sub(started).Seconds())
}

func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
}

func (e *Explorer) buildItinerary(ctx context.Context, searchID string, req models.SearchRequest) (*models.Itinerary, error) {
	if len(req.Origins) == 0 || len(req.Destinations) == 0 {
		return nil, &NoRouteError{Leg: 0}
	}

	var (
		path     []models.FlightEdge
		start    string
		lastDate string
	)

	for i, destination := range req.Destinations {
		searchDate, minDate, err := e.legDates(i, req, lastDate)
		if err != nil {
			return nil, err
		}

		var legPath []models.FlightEdge
		if i == 0 {
			legPath, start, err = e.firstLeg(ctx, req.Origins, destination, searchDate, minDate, req.Criteria)
		} else {
			legPath, err = e.exploreLeg(ctx, i, req.Destinations[i-1], destination, searchDate, minDate, req.Criteria)
		}
		if err != nil {
			return nil, err
		}

		path = append(path, legPath...)
		lastDate = legPath[len(legPath)-1].Date
	}

	itinerary := e.assemble(searchID, req.CitySequence(start), path)
	if limit := req.Criteria.MaxPrice; limit != nil && itinerary.TotalPrice > *limit {
		return nil, fmt.Errorf("%w: total %.2f > %.2f", ErrMaxPriceExceeded, itinerary.TotalPrice, *limit)
	}
	return itinerary, nil
}

// legDates returns the date leg i is searched on and the earliest date its
// edges may depart. Leg 0 leaves on the departure date; later legs stay
// max(layover days, MinStayDays) after the previous leg's last flight.
func (e *Explorer) legDates(i int, req models.SearchRequest, previous string) (string, string, error) {
	if i == 0 {
		return req.DepartureDate, req.DepartureDate, nil
	}

	stay := e.config.DefaultStayDays
	if i-1 < len(req.LayoverDays) {
		stay = req.LayoverDays[i-1]
	}
	if stay < e.config.MinStayDays {
		stay = e.config.MinStayDays
	}

	searchDate, err := dates.AddDays(previous, stay)
	if err != nil {
		return "", "", fmt.Errorf("leg %d date: %w", i, err)
	}
	minDate, err := dates.AddDays(previous, e.config.MinStayDays)
	if err != nil {
		return "", "", fmt.Errorf("leg %d date: %w", i, err)
	}
	return searchDate, minDate, nil
}

// firstLeg tries every requested origin and keeps the lightest path.
func (e *Explorer) firstLeg(ctx context.Context, origins []string, destination, searchDate, minDate string, criteria models.SearchCriteria) ([]models.FlightEdge, string, error) {
	var (
		bestPath   []models.FlightEdge
		bestOrigin string
		bestWeight float64
		firstErr   error
	)

	for _, origin := range origins {
		path, err := e.exploreLeg(ctx, 0, origin, destination, searchDate, minDate, criteria)
		if err != nil {
			var noRoute *NoRouteError
			if !errors.As(err, &noRoute) && !errors.Is(err, ErrMaxPriceExceeded) {
				return nil, "", err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		weight := graph.PathWeight(path, criteria.Priority)
		if bestPath == nil || weight < bestWeight {
			bestPath, bestOrigin, bestWeight = path, origin, weight
		}
	}

	if bestPath == nil {
		return nil, "", firstErr
	}
	return bestPath, bestOrigin, nil
}

func (e *Explorer) exploreLeg(ctx context.Context, leg int, origin, destination, searchDate, minDate string, criteria models.SearchCriteria) ([]models.FlightEdge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := e.selector.SelectCandidates(ctx, origin, destination)

	collected, err := e.collector.CollectLeg(ctx, origin, destination, candidates, searchDate)
	if err != nil {
		metrics.LegsExplored.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("leg %d %s-%s: %w", leg, origin, destination, err)
	}

	edges := filter.Edges(collected.Edges, filter.EdgeCriteria{MinDate: minDate, MaxPrice: criteria.MaxPrice})
	path, ok := graph.FindPath(origin, destination, edges, criteria.Priority)
	if ok {
		metrics.LegsExplored.WithLabelValues("found").Inc()
		return path, nil
	}

	metrics.LegsExplored.WithLabelValues("no_route").Inc()
	if criteria.MaxPrice != nil {
		unbounded := filter.Edges(collected.Edges, filter.EdgeCriteria{MinDate: minDate})
		if _, ok := graph.FindPath(origin, destination, unbounded, criteria.Priority); ok {
			return nil, fmt.Errorf("leg %d %s-%s: %w", leg, origin, destination, ErrMaxPriceExceeded)
		}
	}
	return nil, &NoRouteError{Leg: leg, From: origin, To: destination, Date: searchDate}
}

func (e *Explorer) assemble(searchID string, cityOrder []string, path []models.FlightEdge) *models.Itinerary {
	it := &models.Itinerary{
		ID:        uuid.NewString(),
		SearchID:  searchID,
		Currency:  e.config.Currency,
		CityOrder: cityOrder,
		Legs:      make([]models.Leg, len(path)),
		CreatedAt: e.now(),
	}

	for i, edge := range path {
		it.TotalPrice += edge.Price
		it.TotalDuration += edge.Duration
		it.Legs[i] = models.Leg{
			Order:       i + 1,
			FlightID:    edge.ID,
			Origin:      edge.From,
			Destination: edge.To,
			Price:       edge.Price,
			Duration:    edge.Duration,
			Stops:       edge.Stops,
			Date:        edge.Date,
		}
	}
	it.Score = ranking.ScoreItinerary(*it)
	return it
}
