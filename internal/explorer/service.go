package explorer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightgraph/internal/models"
	"github.com/dharmasatrya/flightgraph/internal/store"
)

// Service is the caller-facing side: it creates searches and runs each
// exploration in the background.
type Service struct {
	store    store.SearchStore
	explorer *Explorer
	baseCtx  context.Context
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewService runs explorations under baseCtx, never under the context of
// the request that created the search.
func NewService(baseCtx context.Context, searches store.SearchStore, explorer *Explorer) *Service {
	return &Service{
		store:    searches,
		explorer: explorer,
		baseCtx:  baseCtx,
		now:      time.Now,
	}
}

// CreateSearch validates and stores the search in searching state, then
// returns without waiting for the exploration.
func (s *Service) CreateSearch(ctx context.Context, req models.SearchRequest) (*models.Search, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	search := models.NewSearch(uuid.NewString(), req, s.now().UTC())
	if err := s.store.Create(ctx, search); err != nil {
		return nil, fmt.Errorf("create search: %w", err)
	}

	explored := search.Request()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.explorer.Explore(s.baseCtx, search.ID, explored)
	}()

	return search, nil
}

func (s *Service) GetSearch(ctx context.Context, id string) (*models.Search, error) {
	return s.store.Get(ctx, id)
}

// Wait blocks until every running exploration has finished or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
