package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/language"

	"github.com/servicereports/servicereports/internal/shared"
)

const selectColumns = `id, first_name, last_name, email, mobile, group_id, status, appointments, deaf, blind,
send_reports, histories, reports, created_at, updated_at`

// Repository persists publishers in Postgres. Embedded collections are stored as JSONB.
type Repository struct {
	pool      *pgxpool.Pool
	collation language.Tag
}

// NewRepository constructs a Repository; tag controls roster ordering.
func NewRepository(pool *pgxpool.Pool, tag language.Tag) *Repository {
	return &Repository{pool: pool, collation: tag}
}

// FindAll returns the roster sorted by name.
func (r *Repository) FindAll(ctx context.Context, filter Filter) ([]Publisher, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM publishers
WHERE ($1 = '' OR group_id = $1) AND ($2 = '' OR status = $2)`, filter.GroupID, string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("publishers: find all: %w", err)
	}
	defer rows.Close()
	list, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	SortByName(list, r.collation)
	return list, nil
}

// FindByID loads a single publisher.
func (r *Repository) FindByID(ctx context.Context, id string) (Publisher, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM publishers WHERE id = $1`, id)
	p, err := scanPublisher(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Publisher{}, fmt.Errorf("publishers: %s: %w", id, shared.ErrNotFound)
		}
		return Publisher{}, fmt.Errorf("publishers: find %s: %w", id, err)
	}
	return p, nil
}

// FindByIDs loads the publishers with the given ids, skipping unknown ids.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) ([]Publisher, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM publishers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("publishers: find by ids: %w", err)
	}
	defer rows.Close()
	list, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	SortByName(list, r.collation)
	return list, nil
}

// Create inserts a publisher, assigning an id when missing.
func (r *Repository) Create(ctx context.Context, p Publisher) (Publisher, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	appointments, histories, reports, err := marshalCollections(p)
	if err != nil {
		return Publisher{}, err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO publishers (`+selectColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Mobile, p.GroupID, string(p.Status), appointments,
		p.Deaf, p.Blind, p.SendReports, histories, reports, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return Publisher{}, fmt.Errorf("publishers: create: %w", err)
	}
	return p, nil
}

// Update replaces the stored publisher and returns the number of affected rows.
func (r *Repository) Update(ctx context.Context, id string, p Publisher) (int64, error) {
	appointments, histories, reports, err := marshalCollections(p)
	if err != nil {
		return 0, err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE publishers SET first_name=$2, last_name=$3, email=$4, mobile=$5,
group_id=$6, status=$7, appointments=$8, deaf=$9, blind=$10, send_reports=$11, histories=$12, reports=$13,
updated_at=NOW() WHERE id=$1`,
		id, p.FirstName, p.LastName, p.Email, p.Mobile, p.GroupID, string(p.Status), appointments,
		p.Deaf, p.Blind, p.SendReports, histories, reports)
	if err != nil {
		return 0, fmt.Errorf("publishers: update %s: %w", id, err)
	}
	return tag.RowsAffected(), nil
}

func marshalCollections(p Publisher) (appointments, histories, reports []byte, err error) {
	if appointments, err = json.Marshal(nonNil(p.Appointments)); err != nil {
		return nil, nil, nil, fmt.Errorf("publishers: encode appointments: %w", err)
	}
	if histories, err = json.Marshal(nonNil(p.Histories)); err != nil {
		return nil, nil, nil, fmt.Errorf("publishers: encode histories: %w", err)
	}
	if reports, err = json.Marshal(nonNil(p.Reports)); err != nil {
		return nil, nil, nil, fmt.Errorf("publishers: encode reports: %w", err)
	}
	return appointments, histories, reports, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func scanAll(rows pgx.Rows) ([]Publisher, error) {
	var list []Publisher
	for rows.Next() {
		p, err := scanPublisher(rows)
		if err != nil {
			return nil, fmt.Errorf("publishers: scan: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("publishers: rows: %w", err)
	}
	return list, nil
}

func scanPublisher(row pgx.Row) (Publisher, error) {
	var (
		p                                Publisher
		status                           string
		appointments, histories, reports []byte
	)
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Mobile, &p.GroupID, &status, &appointments,
		&p.Deaf, &p.Blind, &p.SendReports, &histories, &reports, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Publisher{}, err
	}
	p.Status = Status(status)
	if len(appointments) > 0 {
		if err := json.Unmarshal(appointments, &p.Appointments); err != nil {
			return Publisher{}, err
		}
	}
	if len(histories) > 0 {
		if err := json.Unmarshal(histories, &p.Histories); err != nil {
			return Publisher{}, err
		}
	}
	if len(reports) > 0 {
		if err := json.Unmarshal(reports, &p.Reports); err != nil {
			return Publisher{}, err
		}
	}
	return p, nil
}
