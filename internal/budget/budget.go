// Package budget enforces the daily cap on outbound provider requests.
package budget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dharmasatrya/flightgraph/internal/dates"
)

var ErrBudgetExceeded = errors.New("daily provider request budget exceeded")

// Decision is the outcome of one increment-and-check. Count is the counter
// value after the call; it is left unchanged when the request is denied.
type Decision struct {
	Allowed bool
	Count   int64
	Limit   int64
	Day     string
}

func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %d/%d on %s", ErrBudgetExceeded, d.Count, d.Limit, d.Day)
}

// Counter increments the per-day counter only while it is below limit, as a
// single atomic step in the backing store.
type Counter interface {
	TryIncrement(ctx context.Context, day string, limit int64) (Decision, error)
}

type Guard struct {
	counter Counter
	limit   int64
	now     func() time.Time
}

func NewGuard(counter Counter, maxPerDay int64) *Guard {
	return &Guard{
		counter: counter,
		limit:   maxPerDay,
		now:     time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

func (g *Guard) Limit() int64 {
	return g.limit
}

// Acquire reserves one provider request against today's budget (UTC day).
func (g *Guard) Acquire(ctx context.Context) (Decision, error) {
	day := dates.DayKey(g.now())
	if g.limit <= 0 {
		return Decision{Allowed: false, Limit: g.limit, Day: day}, nil
	}
	return g.counter.TryIncrement(ctx, day, g.limit)
}

type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]int64)}
}

func (c *MemoryCounter) TryIncrement(_ context.Context, day string, limit int64) (Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.counts[day]
	if current >= limit {
		return Decision{Allowed: false, Count: current, Limit: limit, Day: day}, nil
	}
	current++
	c.counts[day] = current
	return Decision{Allowed: true, Count: current, Limit: limit, Day: day}, nil
}

func (c *MemoryCounter) Count(day string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[day]
}
