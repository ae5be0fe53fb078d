// Package graph runs single-pair shortest-path searches over a per-leg flight
// edge set.
package graph

import (
	"math"

	"github.com/dharmasatrya/flightgraph/internal/models"
	"github.com/dharmasatrya/flightgraph/internal/pqueue"
)

// Weight is the cost of an edge under the given priority. Unknown priorities
// are weighed like cheap.
func Weight(edge models.FlightEdge, priority models.Priority) float64 {
	switch priority {
	case models.PriorityFast:
		return float64(edge.Duration)
	case models.PriorityBalanced:
		return edge.Price + float64(edge.Duration)/10
	default:
		return edge.Price
	}
}

func PathWeight(path []models.FlightEdge, priority models.Priority) float64 {
	total := 0.0
	for _, edge := range path {
		total += Weight(edge, priority)
	}
	return total
}

// FindPath returns the edges of a minimum-weight path from start to end in
// travel order. ok is false when end cannot be reached, when start does not
// appear in edges, or when start == end.
func FindPath(start, end string, edges []models.FlightEdge, priority models.Priority) ([]models.FlightEdge, bool) {
	adjacency := make(map[string][]models.FlightEdge)
	nodes := make(map[string]struct{})
	for _, edge := range edges {
		adjacency[edge.From] = append(adjacency[edge.From], edge)
		nodes[edge.From] = struct{}{}
		nodes[edge.To] = struct{}{}
	}
	if _, ok := nodes[start]; !ok {
		return nil, false
	}

	dist := map[string]float64{start: 0}
	prev := make(map[string]models.FlightEdge)
	visited := make(map[string]bool)

	queue := pqueue.New[string]()
	queue.Push(start, 0)

	for {
		node, d, ok := queue.Pop()
		if !ok {
			break
		}
		if visited[node] || d > distance(dist, node) {
			continue
		}
		visited[node] = true
		if node == end {
			break
		}

		for _, edge := range adjacency[node] {
			next := d + Weight(edge, priority)
			if next < distance(dist, edge.To) {
				dist[edge.To] = next
				prev[edge.To] = edge
				queue.Push(edge.To, next)
			}
		}
	}

	var reversed []models.FlightEdge
	for at := end; at != start; {
		edge, ok := prev[at]
		if !ok {
			return nil, false
		}
		reversed = append(reversed, edge)
		at = edge.From
	}
	if len(reversed) == 0 {
		return nil, false
	}

	path := make([]models.FlightEdge, len(reversed))
	for i, edge := range reversed {
		path[len(reversed)-1-i] = edge
	}
	return path, true
}

func distance(dist map[string]float64, node string) float64 {
	if d, ok := dist[node]; ok {
		return d
	}
	return math.Inf(1)
}
