package template

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("template: not found")
	ErrBadStatus = errors.New("template: invalid status transition")
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const templateColumns = `id, name, stage, subject, body, status::text, created_at, updated_at, published_at`

func (r *Repository) List(ctx context.Context, stage int) ([]Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_templates`, templateColumns)
	args := []any{}
	if stage > 0 {
		query += " WHERE stage = $1"
		args = append(args, stage)
	}
	query += " ORDER BY stage ASC, created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("template: list: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, 8)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("template: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("template: iterate: %w", err)
	}
	return out, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_templates WHERE id = $1`, templateColumns)
	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("template: get: %w", err)
	}
	return rec, nil
}

func (r *Repository) Create(ctx context.Context, name string, stage int, subject, body string) (Record, error) {
	query := fmt.Sprintf(`
		INSERT INTO email_templates (name, stage, subject, body, status)
		VALUES ($1, $2, $3, $4, 'draft')
		RETURNING %s
	`, templateColumns)

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, name, stage, subject, body))
	if err != nil {
		return Record{}, fmt.Errorf("template: create: %w", err)
	}
	return rec, nil
}

func (r *Repository) Update(ctx context.Context, id string, subject, body string) (Record, error) {
	query := fmt.Sprintf(`
		UPDATE email_templates
		SET subject = $2,
		    body = $3,
		    updated_at = now()
		WHERE id = $1 AND status = 'draft'
		RETURNING %s
	`, templateColumns)

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id, subject, body))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("template: update: %w", err)
	}

	// Published templates are immutable; distinguish that from a bad id.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return Record{}, getErr
	}
	return Record{}, ErrBadStatus
}

func (r *Repository) Publish(ctx context.Context, id string) (Record, error) {
	query := fmt.Sprintf(`
		UPDATE email_templates
		SET status = 'published',
		    published_at = now(),
		    updated_at = now()
		WHERE id = $1 AND status = 'draft'
		RETURNING %s
	`, templateColumns)

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("template: publish: %w", err)
	}

	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return Record{}, getErr
	}
	return Record{}, ErrBadStatus
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	return rec, row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Stage,
		&rec.Subject,
		&rec.Body,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.PublishedAt,
	)
}
