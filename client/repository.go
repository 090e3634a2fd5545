package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("client: not found")
)

type Repository interface {
	GetByID(ctx context.Context, id string) (Client, error)
	GetAll(ctx context.Context) ([]Client, error)
	GetByStatusIn(ctx context.Context, statuses []Status) ([]Client, error)
	List(ctx context.Context, filters Filters) ([]Client, int, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Client, error)
	Update(ctx context.Context, id string, params UpdateParams) (Client, error)
}

// UpdateParams carries a partial update; nil fields are left untouched.
type UpdateParams struct {
	FullName            *string
	Email               *string
	Phone               *string
	Status              *Status
	AssignedClinicianID *string
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const clientColumns = `id, full_name, email, phone, status::text, assigned_clinician_id, created_at, updated_at`

func (r *PGRepository) GetByID(ctx context.Context, id string) (Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = $1`, clientColumns)
	c, err := scanClient(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, fmt.Errorf("client: get by id: %w", err)
	}
	return c, nil
}

func (r *PGRepository) GetAll(ctx context.Context) ([]Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients ORDER BY created_at DESC`, clientColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("client: get all: %w", err)
	}
	defer rows.Close()
	return collectClients(rows)
}

func (r *PGRepository) GetByStatusIn(ctx context.Context, statuses []Status) ([]Client, error) {
	if len(statuses) == 0 {
		return []Client{}, nil
	}
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	query := fmt.Sprintf(`
		SELECT %s FROM clients
		WHERE status = ANY($1::client_status[])
		ORDER BY created_at ASC
	`, clientColumns)
	rows, err := r.pool.Query(ctx, query, values)
	if err != nil {
		return nil, fmt.Errorf("client: get by status: %w", err)
	}
	defer rows.Close()
	return collectClients(rows)
}

func (r *PGRepository) List(ctx context.Context, filters Filters) ([]Client, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	where := []string{"1=1"}
	args := []any{}
	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status=$%d::client_status", len(args)+1))
		args = append(args, filters.Status)
	}
	if filters.Search != "" {
		where = append(where, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filters.Search+"%")
	}
	whereClause := " WHERE " + strings.Join(where, " AND ")

	sortKey := "created_at"
	if filters.SortKey == "updatedAt" {
		sortKey = "updated_at"
	}
	sortOrder := strings.ToUpper(filters.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	limit := filters.PageSize
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`SELECT %s FROM clients%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		clientColumns, whereClause, sortKey, sortOrder, limit, offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("client: query list: %w", err)
	}
	defer rows.Close()

	list, err := collectClients(rows)
	if err != nil {
		return nil, 0, err
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM clients%s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("client: count list: %w", err)
	}
	return list, total, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status Status) (Client, error) {
	query := fmt.Sprintf(`
		UPDATE clients
		SET status = $2::client_status,
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, clientColumns)
	c, err := scanClient(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, fmt.Errorf("client: update status: %w", err)
	}
	return c, nil
}

func (r *PGRepository) Update(ctx context.Context, id string, params UpdateParams) (Client, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if params.FullName != nil {
		add("full_name", *params.FullName)
	}
	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.Phone != nil {
		add("phone", *params.Phone)
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		sets = append(sets, fmt.Sprintf("status = $%d::client_status", len(args)))
	}
	if params.AssignedClinicianID != nil {
		add("assigned_clinician_id", *params.AssignedClinicianID)
	}

	query := fmt.Sprintf(`UPDATE clients SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), clientColumns)
	c, err := scanClient(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, fmt.Errorf("client: update: %w", err)
	}
	return c, nil
}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	return c, row.Scan(
		&c.ID,
		&c.FullName,
		&c.Email,
		&c.Phone,
		&c.Status,
		&c.AssignedClinicianID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func collectClients(rows pgx.Rows) ([]Client, error) {
	out := make([]Client, 0, 16)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("client: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("client: iterate: %w", err)
	}
	return out, nil
}
