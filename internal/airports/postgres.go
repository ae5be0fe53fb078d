package airports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharmasatrya/flightgraph/internal/models"
)

type PostgresDirectory struct {
	db *pgxpool.Pool
}

func NewPostgresDirectory(db *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const airportColumns = "iata, name, city, country, importance_score, lon, lat"

func (d *PostgresDirectory) FindAirport(ctx context.Context, iata string) (models.Airport, bool, error) {
	var a models.Airport
	err := d.db.QueryRow(ctx,
		"SELECT "+airportColumns+" FROM airports WHERE iata = $1",
		strings.ToUpper(iata)).Scan(&a.IATA, &a.Name, &a.City, &a.Country, &a.ImportanceScore, &a.Longitude, &a.Latitude)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Airport{}, false, nil
	}
	if err != nil {
		return models.Airport{}, false, fmt.Errorf("find airport %s: %w", iata, err)
	}
	return a, true, nil
}

// FindAirportsNear filters on great-circle distance computed in SQL, nearest
// first.
func (d *PostgresDirectory) FindAirportsNear(ctx context.Context, lon, lat, radiusKm float64, exclude []string, limit int) ([]models.Airport, error) {
	skip := make([]string, len(exclude))
	for i, code := range exclude {
		skip[i] = strings.ToUpper(code)
	}
	// LIMIT NULL returns every row
	var rowLimit *int
	if limit > 0 {
		rowLimit = &limit
	}

	rows, err := d.db.Query(ctx, `
		SELECT `+airportColumns+` FROM (
			SELECT `+airportColumns+`,
				2 * 6371 * asin(sqrt(
					power(sin(radians(lat - $2) / 2), 2) +
					cos(radians($2)) * cos(radians(lat)) * power(sin(radians(lon - $1) / 2), 2)
				)) AS distance_km
			FROM airports
			WHERE NOT (iata = ANY($4))
		) nearby
		WHERE distance_km <= $3
		ORDER BY distance_km, iata
		LIMIT $5`,
		lon, lat, radiusKm, skip, rowLimit)
	if err != nil {
		return nil, fmt.Errorf("find airports near: %w", err)
	}
	defer rows.Close()

	var result []models.Airport
	for rows.Next() {
		var a models.Airport
		if err := rows.Scan(&a.IATA, &a.Name, &a.City, &a.Country, &a.ImportanceScore, &a.Longitude, &a.Latitude); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// Upsert seeds or refreshes reference rows in one batch.
func (d *PostgresDirectory) Upsert(ctx context.Context, list []models.Airport) error {
	batch := &pgx.Batch{}
	for _, a := range list {
		batch.Queue(`
			INSERT INTO airports (`+airportColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (iata) DO UPDATE SET
				name = EXCLUDED.name,
				city = EXCLUDED.city,
				country = EXCLUDED.country,
				importance_score = EXCLUDED.importance_score,
				lon = EXCLUDED.lon,
				lat = EXCLUDED.lat`,
			strings.ToUpper(a.IATA), a.Name, a.City, a.Country, a.ImportanceScore, a.Longitude, a.Latitude)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := d.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert airports: %w", err)
	}
	return nil
}

func (d *PostgresDirectory) Count(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRow(ctx, "SELECT count(*) FROM airports").Scan(&n)
	return n, err
}
