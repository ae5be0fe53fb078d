// Package layover proposes intermediate airports between two cities from
// geography and airport importance.
package layover

import (
	"context"
	"log"
	"math"
	"sort"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

const EarthRadiusKm = 6371.0

// AirportLookup is the reference-data collaborator the selector reads from.
type AirportLookup interface {
	FindAirport(ctx context.Context, iata string) (models.Airport, bool, error)
	FindAirportsNear(ctx context.Context, lon, lat, radiusKm float64, exclude []string, limit int) ([]models.Airport, error)
}

type Config struct {
	MinRadiusKm   float64
	MaxRadiusKm   float64
	ShortHaulKm   float64
	LongHaulKm    float64
	RawLimit      int
	MaxCandidates int
}

func DefaultConfig() Config {
	return Config{
		MinRadiusKm:   150,
		MaxRadiusKm:   800,
		ShortHaulKm:   800,
		LongHaulKm:    8000,
		RawLimit:      50,
		MaxCandidates: 6,
	}
}

type Selector struct {
	airports AirportLookup
	config   Config
}

func NewSelector(airports AirportLookup, config Config) *Selector {
	return &Selector{
		airports: airports,
		config:   config,
	}
}

type scoredAirport struct {
	iata  string
	score float64
}

// SelectCandidates returns up to MaxCandidates IATA codes, best first. Lookup
// failures are logged and produce an empty list so the leg falls back to
// direct flights.
func (s *Selector) SelectCandidates(ctx context.Context, originIATA, destinationIATA string) []string {
	if originIATA == "" || destinationIATA == "" || originIATA == destinationIATA {
		return nil
	}

	origin, ok, err := s.airports.FindAirport(ctx, originIATA)
	if err != nil {
		log.Printf("Candidate lookup for %s failed: %v", originIATA, err)
		return nil
	}
	if !ok {
		return nil
	}
	destination, ok, err := s.airports.FindAirport(ctx, destinationIATA)
	if err != nil {
		log.Printf("Candidate lookup for %s failed: %v", destinationIATA, err)
		return nil
	}
	if !ok {
		return nil
	}

	totalDistance := Haversine(origin.Latitude, origin.Longitude, destination.Latitude, destination.Longitude)
	if totalDistance == 0 {
		return nil
	}

	radius := s.AdaptiveRadius(totalDistance)
	midLat := (origin.Latitude + destination.Latitude) / 2
	midLon := (origin.Longitude + destination.Longitude) / 2

	nearby, err := s.airports.FindAirportsNear(ctx, midLon, midLat, radius,
		[]string{originIATA, destinationIATA}, s.config.RawLimit)
	if err != nil {
		log.Printf("Candidate search %s-%s failed: %v", originIATA, destinationIATA, err)
		return nil
	}

	scored := make([]scoredAirport, 0, len(nearby))
	for _, a := range nearby {
		if a.IATA == originIATA || a.IATA == destinationIATA {
			continue
		}
		dOrigin := Haversine(origin.Latitude, origin.Longitude, a.Latitude, a.Longitude)
		dDest := Haversine(destination.Latitude, destination.Longitude, a.Latitude, a.Longitude)
		scored = append(scored, scoredAirport{
			iata:  a.IATA,
			score: Score(a.ImportanceScore, dOrigin, dDest, totalDistance),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > s.config.MaxCandidates {
		scored = scored[:s.config.MaxCandidates]
	}
	result := make([]string, len(scored))
	for i, c := range scored {
		result[i] = c.iata
	}
	return result
}

// AdaptiveRadius widens the search circle with the trip length: MinRadiusKm up
// to ShortHaulKm, MaxRadiusKm from LongHaulKm, linear in between.
func (s *Selector) AdaptiveRadius(distanceKm float64) float64 {
	return AdaptiveRadius(distanceKm, s.config)
}

// AdaptiveRadius interpolates over the ShortHaulKm..LongHaulKm band, so the
// radius is continuous at both edges. Scaling by distanceKm/LongHaulKm instead
// would jump from MinRadiusKm to roughly a tenth of MaxRadiusKm as soon as a
// trip crosses ShortHaulKm.
func AdaptiveRadius(distanceKm float64, cfg Config) float64 {
	if distanceKm <= cfg.ShortHaulKm {
		return cfg.MinRadiusKm
	}
	if distanceKm >= cfg.LongHaulKm {
		return cfg.MaxRadiusKm
	}
	factor := (distanceKm - cfg.ShortHaulKm) / (cfg.LongHaulKm - cfg.ShortHaulKm)
	return cfg.MinRadiusKm + factor*(cfg.MaxRadiusKm-cfg.MinRadiusKm)
}

// Score favours important airports close to the straight line between
// origin and destination.
func Score(importance, dOrigin, dDest, totalDistance float64) float64 {
	detourPenalty := (dOrigin + dDest) / totalDistance
	return importance*2 - detourPenalty*100
}

// Haversine is the great-circle distance in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Pow(math.Sin(dLon/2), 2)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}
