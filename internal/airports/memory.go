// Package airports serves airport reference data to the layover selector.
package airports

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dharmasatrya/flightgraph/internal/layover"
	"github.com/dharmasatrya/flightgraph/internal/models"
)

type MemoryDirectory struct {
	mu       sync.RWMutex
	airports map[string]models.Airport
}

func NewMemoryDirectory(list []models.Airport) *MemoryDirectory {
	d := &MemoryDirectory{airports: make(map[string]models.Airport, len(list))}
	d.Add(list...)
	return d
}

func (d *MemoryDirectory) Add(list ...models.Airport) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, a := range list {
		d.airports[strings.ToUpper(a.IATA)] = a
	}
}

func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.airports)
}

func (d *MemoryDirectory) FindAirport(_ context.Context, iata string) (models.Airport, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.airports[strings.ToUpper(iata)]
	return a, ok, nil
}

// FindAirportsNear returns airports within radiusKm of (lon, lat), nearest
// first, skipping the excluded codes.
func (d *MemoryDirectory) FindAirportsNear(ctx context.Context, lon, lat, radiusKm float64, exclude []string, limit int) ([]models.Airport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	skip := make(map[string]bool, len(exclude))
	for _, code := range exclude {
		skip[strings.ToUpper(code)] = true
	}

	type hit struct {
		airport  models.Airport
		distance float64
	}

	d.mu.RLock()
	hits := make([]hit, 0)
	for code, a := range d.airports {
		if skip[code] {
			continue
		}
		dist := layover.Haversine(lat, lon, a.Latitude, a.Longitude)
		if dist <= radiusKm {
			hits = append(hits, hit{airport: a, distance: dist})
		}
	}
	d.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance == hits[j].distance {
			return hits[i].airport.IATA < hits[j].airport.IATA
		}
		return hits[i].distance < hits[j].distance
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	result := make([]models.Airport, len(hits))
	for i, h := range hits {
		result[i] = h.airport
	}
	return result, nil
}
