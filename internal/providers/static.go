package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/dharmasatrya/flightgraph/internal/dates"
	"github.com/dharmasatrya/flightgraph/internal/models"
)

type staticFixture struct {
	Routes []models.FlightRoute `json:"routes"`
}

// StaticProvider answers from a fixed route table. Segment times written as
// a bare "15:04" are scheduled daily and get the queried date stamped on;
// fully dated times only match their own date.
type StaticProvider struct {
	routes     []models.FlightRoute
	maxLatency time.Duration
}

func NewStaticProvider(routes []models.FlightRoute) *StaticProvider {
	return &StaticProvider{routes: routes}
}

func LoadStaticProvider(path string) (*StaticProvider, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixture staticFixture
	if err := json.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewStaticProvider(fixture.Routes), nil
}

// WithLatency makes every search sleep a random duration up to max.
func (p *StaticProvider) WithLatency(max time.Duration) *StaticProvider {
	p.maxLatency = max
	return p
}

func (p *StaticProvider) Name() string {
	return "static"
}

func (p *StaticProvider) Search(ctx context.Context, params models.ProviderSearchParams) (*models.ProviderResponse, error) {
	if p.maxLatency > 0 {
		delay := time.Duration(rand.Int63n(int64(p.maxLatency)))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	departures := toSet(params.DepartureIDs)
	arrivals := toSet(params.ArrivalIDs)

	var best, other []models.FlightRoute
	for _, route := range p.routes {
		if len(route.Flights) == 0 || !departures[route.Origin()] || !arrivals[route.Destination()] {
			continue
		}
		scheduled, ok := scheduleOn(route, params.OutboundDate)
		if !ok {
			continue
		}
		if len(best) < 3 {
			best = append(best, scheduled)
		} else {
			other = append(other, scheduled)
		}
	}

	return &models.ProviderResponse{
		Metadata: models.SearchMetadata{
			ID:     fmt.Sprintf("static-%d", time.Now().UnixNano()),
			Status: "Success",
		},
		Parameters: models.SearchParameters{
			DepartureID:  strings.Join(params.DepartureIDs, ","),
			ArrivalID:    strings.Join(params.ArrivalIDs, ","),
			OutboundDate: params.OutboundDate,
			Currency:     params.Currency,
			Language:     params.Language,
			Country:      params.Country,
		},
		BestFlights:  best,
		OtherFlights: other,
	}, nil
}

func scheduleOn(route models.FlightRoute, date string) (models.FlightRoute, bool) {
	if len(route.Flights[0].DepartureAirport.Time) > len("15:04") {
		d, ok := dates.SegmentDate(route.Flights[0].DepartureAirport.Time)
		return route, ok && d == date
	}

	scheduled := route
	scheduled.Flights = make([]models.FlightSegment, len(route.Flights))
	for i, segment := range route.Flights {
		segment.DepartureAirport.Time = stamp(segment.DepartureAirport.Time, date)
		segment.ArrivalAirport.Time = stamp(segment.ArrivalAirport.Time, date)
		scheduled.Flights[i] = segment
	}
	if route.BookingToken != "" {
		scheduled.BookingToken = route.BookingToken + "-" + date
	}
	return scheduled, true
}

func stamp(clock, date string) string {
	if clock == "" {
		return date
	}
	return date + " " + clock
}

func toSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[strings.ToUpper(c)] = true
	}
	return set
}
