package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[models.RouteKey][]models.CachedResponse
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[models.RouteKey][]models.CachedResponse)}
}

func (s *MemoryStore) FindFreshest(_ context.Context, key models.RouteKey, notBefore time.Time) (models.CachedResponse, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best models.CachedResponse
	found := false
	for _, entry := range s.entries[key] {
		if entry.CreatedAt.Before(notBefore) {
			continue
		}
		if !found || entry.CreatedAt.After(best.CreatedAt) {
			best = entry
			found = true
		}
	}
	return best, found, nil
}

func (s *MemoryStore) Insert(_ context.Context, resp models.CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[resp.Key] = append(s.entries[resp.Key], resp)
	return nil
}

// Len counts stored responses for key, stale ones included.
func (s *MemoryStore) Len(key models.RouteKey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[key])
}

// NoOpStore never hits and drops every insert.
type NoOpStore struct{}

func NewNoOpStore() *NoOpStore {
	return &NoOpStore{}
}

func (NoOpStore) FindFreshest(context.Context, models.RouteKey, time.Time) (models.CachedResponse, bool, error) {
	return models.CachedResponse{}, false, nil
}

func (NoOpStore) Insert(context.Context, models.CachedResponse) error {
	return nil
}
