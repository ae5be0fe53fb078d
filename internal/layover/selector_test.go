package layover

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

type fakeLookup struct {
	airports map[string]models.Airport
	nearby   []models.Airport
	findErr  error
	nearErr  error

	gotRadius  float64
	gotExclude []string
	gotLimit   int
}

func (f *fakeLookup) FindAirport(_ context.Context, iata string) (models.Airport, bool, error) {
	if f.findErr != nil {
		return models.Airport{}, false, f.findErr
	}
	a, ok := f.airports[iata]
	return a, ok, nil
}

func (f *fakeLookup) FindAirportsNear(_ context.Context, _, _, radiusKm float64, exclude []string, limit int) ([]models.Airport, error) {
	f.gotRadius = radiusKm
	f.gotExclude = exclude
	f.gotLimit = limit
	if f.nearErr != nil {
		return nil, f.nearErr
	}
	return f.nearby, nil
}

var (
	mad = models.Airport{IATA: "MAD", Latitude: 40.4719, Longitude: -3.5626, ImportanceScore: 100}
	bcn = models.Airport{IATA: "BCN", Latitude: 41.2971, Longitude: 2.0785, ImportanceScore: 100}
	zaz = models.Airport{IATA: "ZAZ", Latitude: 41.6662, Longitude: -1.0415, ImportanceScore: 50}
	vlc = models.Airport{IATA: "VLC", Latitude: 39.4893, Longitude: -0.4816, ImportanceScore: 100}
	reu = models.Airport{IATA: "REU", Latitude: 41.1474, Longitude: 1.1672, ImportanceScore: 50}
)

func newFake() *fakeLookup {
	return &fakeLookup{
		airports: map[string]models.Airport{"MAD": mad, "BCN": bcn},
		nearby:   []models.Airport{zaz, vlc, reu},
	}
}

func TestHaversine_MadridBarcelona(t *testing.T) {
	d := Haversine(mad.Latitude, mad.Longitude, bcn.Latitude, bcn.Longitude)

	assert.InDelta(t, 483, d, 5)
	assert.Equal(t, 0.0, Haversine(1, 2, 1, 2))
}

func TestAdaptiveRadius_Bounds(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 150.0, AdaptiveRadius(0, cfg))
	assert.Equal(t, 150.0, AdaptiveRadius(799, cfg))
	assert.Equal(t, 150.0, AdaptiveRadius(800, cfg))
	assert.InDelta(t, 475.0, AdaptiveRadius(4400, cfg), 1e-9)
	assert.Equal(t, 800.0, AdaptiveRadius(8000, cfg))
	assert.Equal(t, 800.0, AdaptiveRadius(20000, cfg))
}

func TestAdaptiveRadius_NonDecreasing(t *testing.T) {
	cfg := DefaultConfig()
	prev := AdaptiveRadius(0, cfg)

	for d := 0.0; d <= 21000; d += 7.5 {
		r := AdaptiveRadius(d, cfg)
		require.GreaterOrEqual(t, r, prev, "distance %.1f", d)
		require.GreaterOrEqual(t, r, cfg.MinRadiusKm)
		require.LessOrEqual(t, r, cfg.MaxRadiusKm)
		prev = r
	}
}

func TestAdaptiveRadius_ContinuousAtBandEdges(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name       string
		below      float64
		above      float64
		wantNearKm float64
	}{
		{name: "short haul edge", below: cfg.ShortHaulKm - 1, above: cfg.ShortHaulKm + 1, wantNearKm: cfg.MinRadiusKm},
		{name: "long haul edge", below: cfg.LongHaulKm - 1, above: cfg.LongHaulKm + 1, wantNearKm: cfg.MaxRadiusKm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantNearKm, AdaptiveRadius(tt.below, cfg), 1)
			assert.InDelta(t, tt.wantNearKm, AdaptiveRadius(tt.above, cfg), 1)
		})
	}
}

func TestSelectCandidates_RanksByImportanceAndDetour(t *testing.T) {
	fake := newFake()
	s := NewSelector(fake, DefaultConfig())

	got := s.SelectCandidates(context.Background(), "MAD", "BCN")

	// VLC detours the most but its weight as a large airport outranks that.
	assert.Equal(t, []string{"VLC", "REU", "ZAZ"}, got)
	assert.Equal(t, 150.0, fake.gotRadius)
	assert.Equal(t, []string{"MAD", "BCN"}, fake.gotExclude)
	assert.Equal(t, 50, fake.gotLimit)
}

func TestSelectCandidates_RegionalAirportBeatsAirstripOnTheLine(t *testing.T) {
	// About 300 km apart; the medium airport sits 133 km off the straight line.
	aaa := models.Airport{IATA: "AAA", Latitude: 0, Longitude: 0, ImportanceScore: 100}
	bbb := models.Airport{IATA: "BBB", Latitude: 0, Longitude: 2.7, ImportanceScore: 100}
	med := models.Airport{IATA: "MED", Latitude: 1.2, Longitude: 1.35, ImportanceScore: 50}
	sml := models.Airport{IATA: "SML", Latitude: 0, Longitude: 1.35, ImportanceScore: 10}

	fake := &fakeLookup{
		airports: map[string]models.Airport{"AAA": aaa, "BBB": bbb},
		nearby:   []models.Airport{sml, med},
	}
	s := NewSelector(fake, DefaultConfig())

	assert.Equal(t, []string{"MED", "SML"}, s.SelectCandidates(context.Background(), "AAA", "BBB"))
	assert.InDelta(t, -33.8, Score(med.ImportanceScore, 200.8, 200.8, 300.2), 0.1)
	assert.InDelta(t, -80.0, Score(sml.ImportanceScore, 150.1, 150.1, 300.2), 0.1)
}

func TestSelectCandidates_CapsAtMaxCandidates(t *testing.T) {
	fake := newFake()
	for _, code := range []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG"} {
		fake.nearby = append(fake.nearby, models.Airport{IATA: code, Latitude: 41, Longitude: -1, ImportanceScore: 10})
	}
	s := NewSelector(fake, DefaultConfig())

	got := s.SelectCandidates(context.Background(), "MAD", "BCN")

	assert.Len(t, got, 6)
}

func TestSelectCandidates_DropsEndpointsFromResults(t *testing.T) {
	fake := newFake()
	fake.nearby = []models.Airport{mad, zaz, bcn}
	s := NewSelector(fake, DefaultConfig())

	assert.Equal(t, []string{"ZAZ"}, s.SelectCandidates(context.Background(), "MAD", "BCN"))
}

func TestSelectCandidates_FailsOpen(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fakeLookup)
		origin string
		dest   string
	}{
		{name: "unknown origin", origin: "XYZ", dest: "BCN"},
		{name: "unknown destination", origin: "MAD", dest: "XYZ"},
		{name: "empty code", origin: "", dest: "BCN"},
		{name: "lookup error", origin: "MAD", dest: "BCN", mutate: func(f *fakeLookup) { f.findErr = errors.New("db down") }},
		{name: "geo query error", origin: "MAD", dest: "BCN", mutate: func(f *fakeLookup) { f.nearErr = errors.New("timeout") }},
		{name: "zero distance", origin: "MAD", dest: "MA2", mutate: func(f *fakeLookup) {
			twin := mad
			twin.IATA = "MA2"
			f.airports["MA2"] = twin
		}},
		{name: "no airports nearby", origin: "MAD", dest: "BCN", mutate: func(f *fakeLookup) { f.nearby = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake()
			if tt.mutate != nil {
				tt.mutate(fake)
			}
			s := NewSelector(fake, DefaultConfig())

			assert.Empty(t, s.SelectCandidates(context.Background(), tt.origin, tt.dest))
		})
	}
}
