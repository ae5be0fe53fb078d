package filter

import (
	"github.com/dharmasatrya/flightgraph/internal/dates"
	"github.com/dharmasatrya/flightgraph/internal/models"
)

type EdgeCriteria struct {
	// MinDate drops edges departing before this YYYY-MM-DD date.
	MinDate  string
	MaxPrice *float64
}

// Edges keeps the edges a leg may use. Duplicate IDs keep the first
// occurrence.
func Edges(edges []models.FlightEdge, criteria EdgeCriteria) []models.FlightEdge {
	result := make([]models.FlightEdge, 0, len(edges))
	seen := make(map[string]bool, len(edges))

	for _, e := range edges {
		if seen[e.ID] || !matches(e, criteria) {
			continue
		}
		seen[e.ID] = true
		result = append(result, e)
	}

	return result
}

func matches(e models.FlightEdge, criteria EdgeCriteria) bool {
	if e.From == e.To {
		return false
	}
	if criteria.MinDate != "" && !dates.OnOrAfter(e.Date, criteria.MinDate) {
		return false
	}
	if criteria.MaxPrice != nil && e.Price > *criteria.MaxPrice {
		return false
	}
	return true
}
