package serviceyears

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servicereports/servicereports/internal/shared"
)

// Repository persists service years in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByYear loads the service year n.
func (r *Repository) FindByYear(ctx context.Context, n int) (ServiceYear, error) {
	var (
		y              ServiceYear
		months, events []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT name, service_months, history FROM service_years WHERE name = $1`, n).
		Scan(&y.Name, &months, &events)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ServiceYear{}, fmt.Errorf("serviceyears: %d: %w", n, shared.ErrNotFound)
		}
		return ServiceYear{}, fmt.Errorf("serviceyears: find %d: %w", n, err)
	}
	if err := json.Unmarshal(months, &y.ServiceMonths); err != nil {
		return ServiceYear{}, fmt.Errorf("serviceyears: decode months: %w", err)
	}
	if err := json.Unmarshal(events, &y.History); err != nil {
		return ServiceYear{}, fmt.Errorf("serviceyears: decode history: %w", err)
	}
	return y, nil
}

// FindOrCreate returns the service year n, inserting an empty one when missing.
func (r *Repository) FindOrCreate(ctx context.Context, n int) (ServiceYear, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO service_years (name, service_months, history)
VALUES ($1, '[]'::jsonb, '[]'::jsonb) ON CONFLICT (name) DO NOTHING`, n)
	if err != nil {
		return ServiceYear{}, fmt.Errorf("serviceyears: create %d: %w", n, err)
	}
	return r.FindByYear(ctx, n)
}

// Update replaces the month list and history of the service year.
func (r *Repository) Update(ctx context.Context, n int, y ServiceYear) (int64, error) {
	months, err := json.Marshal(orEmpty(y.ServiceMonths))
	if err != nil {
		return 0, fmt.Errorf("serviceyears: encode months: %w", err)
	}
	events, err := json.Marshal(orEmpty(y.History))
	if err != nil {
		return 0, fmt.Errorf("serviceyears: encode history: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE service_years SET service_months=$2, history=$3 WHERE name=$1`, n, months, events)
	if err != nil {
		return 0, fmt.Errorf("serviceyears: update %d: %w", n, err)
	}
	return tag.RowsAffected(), nil
}

// AppendHistory atomically appends entry to the history of year n, creating the year if needed.
func (r *Repository) AppendHistory(ctx context.Context, n int, entry shared.HistoryEntry) error {
	payload, err := json.Marshal([]shared.HistoryEntry{entry})
	if err != nil {
		return fmt.Errorf("serviceyears: encode entry: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO service_years (name, service_months, history)
VALUES ($1, '[]'::jsonb, $2::jsonb)
ON CONFLICT (name) DO UPDATE SET history = service_years.history || EXCLUDED.history`, n, payload)
	if err != nil {
		return fmt.Errorf("serviceyears: append history %d: %w", n, err)
	}
	return nil
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
