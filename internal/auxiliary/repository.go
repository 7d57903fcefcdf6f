// Package auxiliary stores the per-period auxiliary pioneer enrollments.
package auxiliary

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists auxiliary enrollments in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Enroll registers publisherID as auxiliary pioneer for the period key.
func (r *Repository) Enroll(ctx context.Context, key, publisherID string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO auxiliary_enrollments (period_key, publisher_id)
VALUES ($1, $2) ON CONFLICT DO NOTHING`, key, publisherID)
	if err != nil {
		return fmt.Errorf("auxiliary: enroll %s: %w", key, err)
	}
	return nil
}

// FindByPeriod returns the publisher ids enrolled for key.
func (r *Repository) FindByPeriod(ctx context.Context, key string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT publisher_id FROM auxiliary_enrollments WHERE period_key = $1 ORDER BY publisher_id`, key)
	if err != nil {
		return nil, fmt.Errorf("auxiliary: find %s: %w", key, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("auxiliary: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteByPeriod clears the enrollments of key.
func (r *Repository) DeleteByPeriod(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM auxiliary_enrollments WHERE period_key = $1`, key); err != nil {
		return fmt.Errorf("auxiliary: delete %s: %w", key, err)
	}
	return nil
}
