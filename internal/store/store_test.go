package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

func stores(t *testing.T) map[string]SearchStore {
	t.Helper()
	result := map[string]SearchStore{"memory": NewMemoryStore()}

	if dsn := os.Getenv("FLIGHTGRAPH_TEST_DSN"); dsn != "" {
		ctx := context.Background()
		pool, err := NewPool(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(pool.Close)
		require.NoError(t, Migrate(ctx, pool))
		result["postgres"] = NewPostgresStore(pool)
	}
	return result
}

func newSearch() *models.Search {
	max := 400.0
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.NewSearch(uuid.NewString(), models.SearchRequest{
		Origins:       []string{"MAD"},
		Destinations:  []string{"BCN", "ROM"},
		DepartureDate: "2026-03-10",
		LayoverDays:   []int{3},
		Criteria:      models.SearchCriteria{Priority: models.PriorityCheap, MaxPrice: &max},
	}, now)
}

func itinerary(searchID string) models.Itinerary {
	return models.Itinerary{
		ID:            uuid.NewString(),
		SearchID:      searchID,
		Score:         27.1,
		TotalPrice:    50,
		TotalDuration: 70,
		Currency:      "USD",
		CityOrder:     []string{"MAD", "BCN"},
		Legs: []models.Leg{{
			Order: 1, FlightID: "tok-1", Origin: "MAD", Destination: "BCN",
			Price: 50, Duration: 70, Date: "2026-03-10",
		}},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			search := newSearch()
			require.NoError(t, s.Create(ctx, search))

			got, err := s.Get(ctx, search.ID)
			require.NoError(t, err)
			assert.Equal(t, search.ID, got.ID)
			assert.Equal(t, models.StatusSearching, got.Status)
			assert.Equal(t, []string{"BCN", "ROM"}, got.Destinations)
			assert.Equal(t, []int{3}, got.LayoverDays)
			require.NotNil(t, got.Criteria.MaxPrice)
			assert.Equal(t, 400.0, *got.Criteria.MaxPrice)
			assert.Empty(t, got.Itineraries)

			assert.ErrorIs(t, s.Create(ctx, search), ErrAlreadyExists)

			_, err = s.Get(ctx, uuid.NewString())
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_StatusIsTerminal(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			search := newSearch()
			require.NoError(t, s.Create(ctx, search))

			require.NoError(t, s.UpdateStatus(ctx, search.ID, models.StatusFailed, models.ReasonNoRoute))

			assert.ErrorIs(t, s.UpdateStatus(ctx, search.ID, models.StatusCompleted, models.ReasonNone), ErrInvalidTransition)
			assert.ErrorIs(t, s.UpdateStatus(ctx, search.ID, models.StatusFailed, models.ReasonTimeout), ErrInvalidTransition)
			assert.ErrorIs(t, s.Complete(ctx, itinerary(search.ID)), ErrInvalidTransition)

			got, err := s.Get(ctx, search.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusFailed, got.Status)
			assert.Equal(t, models.ReasonNoRoute, got.FailureReason)
			assert.Empty(t, got.Itineraries)

			assert.ErrorIs(t, s.UpdateStatus(ctx, uuid.NewString(), models.StatusFailed, models.ReasonNoRoute), ErrNotFound)
		})
	}
}

func TestStore_RejectsBackToSearching(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			search := newSearch()
			require.NoError(t, s.Create(ctx, search))

			assert.ErrorIs(t, s.UpdateStatus(ctx, search.ID, models.StatusSearching, models.ReasonNone), ErrInvalidTransition)
		})
	}
}

func TestStore_CompleteStoresItineraryAndStatus(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			search := newSearch()
			require.NoError(t, s.Create(ctx, search))

			it := itinerary(search.ID)
			require.NoError(t, s.Complete(ctx, it))

			got, err := s.Get(ctx, search.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusCompleted, got.Status)
			require.Len(t, got.Itineraries, 1)
			assert.Equal(t, it.ID, got.Itineraries[0].ID)
			assert.Equal(t, it.Legs, got.Itineraries[0].Legs)
			assert.Equal(t, []string{"MAD", "BCN"}, got.Itineraries[0].CityOrder)

			assert.ErrorIs(t, s.Complete(ctx, itinerary(search.ID)), ErrInvalidTransition)
			assert.ErrorIs(t, s.UpdateStatus(ctx, search.ID, models.StatusFailed, models.ReasonInternal), ErrInvalidTransition)
			assert.ErrorIs(t, s.Complete(ctx, itinerary(uuid.NewString())), ErrNotFound)

			again, err := s.Get(ctx, search.ID)
			require.NoError(t, err)
			assert.Len(t, again.Itineraries, 1)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	search := newSearch()
	require.NoError(t, s.Create(ctx, search))

	got, err := s.Get(ctx, search.ID)
	require.NoError(t, err)
	got.Destinations[0] = "XXX"
	got.Status = models.StatusCompleted

	again, err := s.Get(ctx, search.ID)
	require.NoError(t, err)
	assert.Equal(t, "BCN", again.Destinations[0])
	assert.Equal(t, models.StatusSearching, again.Status)
}
