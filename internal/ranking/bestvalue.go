package ranking

import (
	"math"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

const (
	PriceWeight    = 0.5
	DurationWeight = 0.3
	StopsWeight    = 0.2
)

// Lower score = better value
func ScoreItinerary(it models.Itinerary) float64 {
	priceScore := it.TotalPrice
	durationScore := float64(it.TotalDuration) / 10
	stopsScore := float64(Stops(it)) * 15

	score := (priceScore * PriceWeight) + (durationScore * DurationWeight) + (stopsScore * StopsWeight)
	return math.Round(score*100) / 100
}

// Stops counts every intermediate landing: the stops inside each booked
// flight plus the self-connections made at candidate layovers.
func Stops(it models.Itinerary) int {
	stops := it.TotalStops()
	if requested := len(it.CityOrder) - 1; requested > 0 && len(it.Legs) > requested {
		stops += len(it.Legs) - requested
	}
	return stops
}
