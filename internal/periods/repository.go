package periods

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servicereports/servicereports/internal/shared"
)

const selectColumns = `id, key, service_year, sort_order, status, reports, attendance, stats, created_at, closed_at`

// Repository persists service months in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindActive returns the single ACTIVE period.
func (r *Repository) FindActive(ctx context.Context) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM service_months WHERE status = $1 LIMIT 1`, string(StatusActive))
	return r.one(row, "active")
}

// FindByKey returns the period with the given key.
func (r *Repository) FindByKey(ctx context.Context, key string) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM service_months WHERE key = $1`, key)
	return r.one(row, key)
}

// FindLatestDone returns the most recent DONE period in fiscal order.
func (r *Repository) FindLatestDone(ctx context.Context) (Period, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM service_months WHERE status = $1
ORDER BY service_year DESC, sort_order DESC LIMIT 1`, string(StatusDone))
	return r.one(row, "latest done")
}

// FindByKeys returns the periods matching keys ordered by fiscal position.
func (r *Repository) FindByKeys(ctx context.Context, keys []string) ([]Period, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM service_months WHERE key = ANY($1)
ORDER BY service_year, sort_order`, keys)
	if err != nil {
		return nil, fmt.Errorf("periods: find by keys: %w", err)
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("periods: scan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("periods: rows: %w", err)
	}
	return out, nil
}

// Create inserts a new period. The partial unique index on status rejects a second ACTIVE period.
func (r *Repository) Create(ctx context.Context, p Period) (Period, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	reports, attendance, stats, err := marshalCollections(p)
	if err != nil {
		return Period{}, err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO service_months (`+selectColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Key, p.ServiceYear, p.SortOrder, string(p.Status), reports, attendance, stats, p.CreatedAt, p.ClosedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Period{}, fmt.Errorf("periods: create %s: %w", p.Key, shared.ErrConflict)
		}
		return Period{}, fmt.Errorf("periods: create %s: %w", p.Key, err)
	}
	return p, nil
}

// Update replaces the stored period and returns the number of affected rows.
func (r *Repository) Update(ctx context.Context, id string, p Period) (int64, error) {
	reports, attendance, stats, err := marshalCollections(p)
	if err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE service_months SET status=$2, reports=$3, attendance=$4, stats=$5, closed_at=$6
WHERE id=$1`, id, string(p.Status), reports, attendance, stats, p.ClosedAt)
	if err != nil {
		return 0, fmt.Errorf("periods: update %s: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) one(row pgx.Row, what string) (Period, error) {
	p, err := scanPeriod(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, fmt.Errorf("periods: %s: %w", what, shared.ErrNotFound)
		}
		return Period{}, fmt.Errorf("periods: load %s: %w", what, err)
	}
	return p, nil
}

func marshalCollections(p Period) (reports, attendance, stats []byte, err error) {
	if p.Reports == nil {
		reports = []byte("[]")
	} else if reports, err = json.Marshal(p.Reports); err != nil {
		return nil, nil, nil, fmt.Errorf("periods: encode reports: %w", err)
	}
	if p.Attendance == nil {
		attendance = []byte("[]")
	} else if attendance, err = json.Marshal(p.Attendance); err != nil {
		return nil, nil, nil, fmt.Errorf("periods: encode attendance: %w", err)
	}
	if stats, err = json.Marshal(p.Stats); err != nil {
		return nil, nil, nil, fmt.Errorf("periods: encode stats: %w", err)
	}
	return reports, attendance, stats, nil
}

func scanPeriod(row pgx.Row) (Period, error) {
	var (
		p                          Period
		status                     string
		reports, attendance, stats []byte
	)
	if err := row.Scan(&p.ID, &p.Key, &p.ServiceYear, &p.SortOrder, &status, &reports, &attendance, &stats,
		&p.CreatedAt, &p.ClosedAt); err != nil {
		return Period{}, err
	}
	p.Status = Status(status)
	if len(reports) > 0 {
		if err := json.Unmarshal(reports, &p.Reports); err != nil {
			return Period{}, err
		}
	}
	if len(attendance) > 0 {
		if err := json.Unmarshal(attendance, &p.Attendance); err != nil {
			return Period{}, err
		}
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &p.Stats); err != nil {
			return Period{}, err
		}
	}
	return p, nil
}
