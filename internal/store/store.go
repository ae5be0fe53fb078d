// Package store persists searches and their itineraries.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

var (
	ErrNotFound          = errors.New("search not found")
	ErrAlreadyExists     = errors.New("search already exists")
	ErrInvalidTransition = errors.New("search is no longer searching")
)

type SearchStore interface {
	Create(ctx context.Context, search *models.Search) error
	Get(ctx context.Context, id string) (*models.Search, error)
	// UpdateStatus moves a search out of searching exactly once.
	UpdateStatus(ctx context.Context, id string, status models.SearchStatus, reason models.FailureReason) error
	// Complete stores the itinerary and marks its search completed in one
	// step; it is only accepted while the search is still searching.
	Complete(ctx context.Context, itinerary models.Itinerary) error
}

func validTransition(from, to models.SearchStatus) bool {
	return from == models.StatusSearching && to.Terminal()
}

type MemoryStore struct {
	mu       sync.RWMutex
	searches map[string]*models.Search
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		searches: make(map[string]*models.Search),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, search *models.Search) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.searches[search.ID]; exists {
		return ErrAlreadyExists
	}
	s.searches[search.ID] = clone(search)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Search, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search, ok := s.searches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(search), nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status models.SearchStatus, reason models.FailureReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	search, ok := s.searches[id]
	if !ok {
		return ErrNotFound
	}
	if !validTransition(search.Status, status) {
		return ErrInvalidTransition
	}
	search.Status = status
	search.FailureReason = reason
	search.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Complete(_ context.Context, itinerary models.Itinerary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	search, ok := s.searches[itinerary.SearchID]
	if !ok {
		return ErrNotFound
	}
	if search.Status != models.StatusSearching {
		return ErrInvalidTransition
	}
	itinerary.Legs = append([]models.Leg(nil), itinerary.Legs...)
	itinerary.CityOrder = append([]string(nil), itinerary.CityOrder...)
	search.Itineraries = append(search.Itineraries, itinerary)
	search.Status = models.StatusCompleted
	search.FailureReason = models.ReasonNone
	search.UpdatedAt = s.now()
	return nil
}

func clone(s *models.Search) *models.Search {
	c := *s
	c.Origins = append([]string(nil), s.Origins...)
	c.Destinations = append([]string(nil), s.Destinations...)
	c.LayoverDays = append([]int(nil), s.LayoverDays...)
	if s.Criteria.MaxPrice != nil {
		v := *s.Criteria.MaxPrice
		c.Criteria.MaxPrice = &v
	}
	c.Itineraries = make([]models.Itinerary, len(s.Itineraries))
	for i, it := range s.Itineraries {
		it.Legs = append([]models.Leg(nil), it.Legs...)
		it.CityOrder = append([]string(nil), it.CityOrder...)
		c.Itineraries[i] = it
	}
	if len(c.Itineraries) == 0 {
		c.Itineraries = nil
	}
	return &c
}
