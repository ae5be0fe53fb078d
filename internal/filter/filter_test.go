package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

func edge(id, date string, price float64) models.FlightEdge {
	return models.FlightEdge{ID: id, From: "BCN", To: "ROM", Price: price, Duration: 100, Date: date}
}

func ids(edges []models.FlightEdge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.ID
	}
	return out
}

func TestEdges_MinDate(t *testing.T) {
	edges := []models.FlightEdge{
		edge("early", "2026-03-10", 10),
		edge("same", "2026-03-11", 10),
		edge("later", "2026-03-13", 10),
		edge("bad", "soon", 10),
	}

	got := Edges(edges, EdgeCriteria{MinDate: "2026-03-11"})

	assert.Equal(t, []string{"same", "later"}, ids(got))
}

func TestEdges_MaxPrice(t *testing.T) {
	limit := 100.0
	edges := []models.FlightEdge{
		edge("cheap", "2026-03-11", 99),
		edge("exact", "2026-03-11", 100),
		edge("dear", "2026-03-11", 101),
	}

	got := Edges(edges, EdgeCriteria{MaxPrice: &limit})

	assert.Equal(t, []string{"cheap", "exact"}, ids(got))
}

func TestEdges_DropsDuplicatesAndLoops(t *testing.T) {
	loop := edge("loop", "2026-03-11", 10)
	loop.To = loop.From

	got := Edges([]models.FlightEdge{
		edge("a", "2026-03-11", 10),
		edge("a", "2026-03-11", 10),
		loop,
	}, EdgeCriteria{})

	assert.Equal(t, []string{"a"}, ids(got))
}

func TestEdges_NoCriteriaKeepsEverything(t *testing.T) {
	edges := []models.FlightEdge{edge("a", "2026-03-10", 10), edge("b", "2026-03-12", 1000)}

	assert.Len(t, Edges(edges, EdgeCriteria{}), 2)
	assert.Empty(t, Edges(nil, EdgeCriteria{}))
}
