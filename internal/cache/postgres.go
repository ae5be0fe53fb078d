package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

// PostgresStore appends every provider response, which also serves as the
// audit trail of outbound calls.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindFreshest(ctx context.Context, key models.RouteKey, notBefore time.Time) (models.CachedResponse, bool, error) {
	var (
		entry   models.CachedResponse
		payload []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, payload, created_at FROM provider_responses
		WHERE origin = $1 AND destination = $2 AND outbound_date = $3 AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT 1`,
		key.Origin, key.Destination, key.Date, notBefore).Scan(&entry.ID, &payload, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CachedResponse{}, false, nil
	}
	if err != nil {
		return models.CachedResponse{}, false, err
	}

	if err := json.Unmarshal(payload, &entry.Response); err != nil {
		return models.CachedResponse{}, false, fmt.Errorf("decode cached response %s: %w", entry.ID, err)
	}
	entry.Key = key
	return entry, true, nil
}

func (s *PostgresStore) Insert(ctx context.Context, resp models.CachedResponse) error {
	payload, err := json.Marshal(resp.Response)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO provider_responses (id, origin, destination, outbound_date, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		resp.ID, resp.Key.Origin, resp.Key.Destination, resp.Key.Date, payload, resp.CreatedAt)
	return err
}
