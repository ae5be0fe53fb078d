package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresCounter struct {
	db *pgxpool.Pool
}

func NewPostgresCounter(db *pgxpool.Pool) *PostgresCounter {
	return &PostgresCounter{db: db}
}

// TryIncrement relies on the conditional upsert: the row is only touched
// while count < limit, so no RETURNING row means the budget is spent.
func (c *PostgresCounter) TryIncrement(ctx context.Context, day string, limit int64) (Decision, error) {
	var count int64
	err := c.db.QueryRow(ctx, `
		INSERT INTO provider_request_budget (day, count) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET count = provider_request_budget.count + 1
		WHERE provider_request_budget.count < $2
		RETURNING count`,
		day, limit).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		current, err := c.current(ctx, day)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Allowed: false, Count: current, Limit: limit, Day: day}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("budget increment: %w", err)
	}
	return Decision{Allowed: true, Count: count, Limit: limit, Day: day}, nil
}

func (c *PostgresCounter) current(ctx context.Context, day string) (int64, error) {
	var count int64
	err := c.db.QueryRow(ctx, "SELECT count FROM provider_request_budget WHERE day = $1", day).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("budget read: %w", err)
	}
	return count, nil
}
