package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates every table the service uses. It is safe to rerun.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type PostgresStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) Create(ctx context.Context, search *models.Search) error {
	layoverDays := search.LayoverDays
	if layoverDays == nil {
		layoverDays = []int{}
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO searches (id, origins, destinations, departure_date, layover_days, priority, max_price, status, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		search.ID, search.Origins, search.Destinations, search.DepartureDate, layoverDays,
		string(search.Criteria.Priority), search.Criteria.MaxPrice,
		string(search.Status), string(search.FailureReason), search.CreatedAt, search.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert search: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Search, error) {
	var (
		search   models.Search
		priority string
		status   string
		reason   string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, origins, destinations, departure_date, layover_days, priority, max_price, status, failure_reason, created_at, updated_at
		FROM searches WHERE id = $1`, id).Scan(
		&search.ID, &search.Origins, &search.Destinations, &search.DepartureDate, &search.LayoverDays,
		&priority, &search.Criteria.MaxPrice, &status, &reason, &search.CreatedAt, &search.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get search: %w", err)
	}
	search.Criteria.Priority = models.Priority(priority)
	search.Status = models.SearchStatus(status)
	search.FailureReason = models.FailureReason(reason)
	if len(search.LayoverDays) == 0 {
		search.LayoverDays = nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, search_id, score, total_price, total_duration, currency, city_order, legs, created_at
		FROM itineraries WHERE search_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("get itineraries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it   models.Itinerary
			legs []byte
		)
		if err := rows.Scan(&it.ID, &it.SearchID, &it.Score, &it.TotalPrice, &it.TotalDuration,
			&it.Currency, &it.CityOrder, &legs, &it.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(legs, &it.Legs); err != nil {
			return nil, fmt.Errorf("decode legs of %s: %w", it.ID, err)
		}
		search.Itineraries = append(search.Itineraries, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &search, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status models.SearchStatus, reason models.FailureReason) error {
	if !status.Terminal() {
		return ErrInvalidTransition
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE searches SET status = $2, failure_reason = $3, updated_at = $4
		WHERE id = $1 AND status = $5`,
		id, string(status), string(reason), s.now(), string(models.StatusSearching))
	if err != nil {
		return fmt.Errorf("update search status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM searches WHERE id = $1)", id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

// Complete inserts the itinerary and flips the status inside one transaction,
// holding the search row lock throughout.
func (s *PostgresStore) Complete(ctx context.Context, it models.Itinerary) error {
	legs, err := json.Marshal(it.Legs)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, "SELECT status FROM searches WHERE id = $1 FOR UPDATE", it.SearchID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock search: %w", err)
	}
	if models.SearchStatus(status) != models.StatusSearching {
		return ErrInvalidTransition
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO itineraries (id, search_id, score, total_price, total_duration, currency, city_order, legs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		it.ID, it.SearchID, it.Score, it.TotalPrice, it.TotalDuration, it.Currency, it.CityOrder, legs, it.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert itinerary: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE searches SET status = $2, failure_reason = '', updated_at = $3
		WHERE id = $1`,
		it.SearchID, string(models.StatusCompleted), s.now())
	if err != nil {
		return fmt.Errorf("complete search: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx commit failed: %w", err)
	}
	return nil
}
