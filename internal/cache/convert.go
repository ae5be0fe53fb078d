package cache

import (
	"log"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightgraph/internal/dates"
	"github.com/dharmasatrya/flightgraph/internal/models"
)

// ToEdges converts provider routes into graph edges, skipping malformed ones.
// The edge date is the local date of the first departure, or queryDate when
// the provider time cannot be read.
func ToEdges(routes []models.FlightRoute, queryDate string) []models.FlightEdge {
	edges := make([]models.FlightEdge, 0, len(routes))
	for _, route := range routes {
		edge, err := ToEdge(route, queryDate)
		if err != nil {
			log.Printf("Skipping provider route %s-%s: %v", route.Origin(), route.Destination(), err)
			continue
		}
		edges = append(edges, edge)
	}
	return edges
}

func ToEdge(route models.FlightRoute, queryDate string) (models.FlightEdge, error) {
	if err := route.Validate(); err != nil {
		return models.FlightEdge{}, err
	}

	id := route.BookingToken
	if id == "" {
		id = uuid.NewString()
	}

	duration := route.TotalDuration
	if duration == 0 {
		for _, segment := range route.Flights {
			duration += segment.Duration
		}
		for _, layover := range route.Layovers {
			duration += layover.Duration
		}
	}

	date := queryDate
	if d, ok := dates.SegmentDate(route.Flights[0].DepartureAirport.Time); ok {
		date = d
	}

	return models.FlightEdge{
		ID:       id,
		From:     route.Origin(),
		To:       route.Destination(),
		Price:    *route.Price,
		Duration: duration,
		Stops:    route.Stops(),
		Date:     date,
	}, nil
}
