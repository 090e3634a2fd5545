package comms

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicate signals that a communication with the same inbound
	// message reference already exists for the client.
	ErrDuplicate = errors.New("comms: duplicate communication")
)

type Repository interface {
	Create(ctx context.Context, rec Record) (Record, error)
	ListByClient(ctx context.Context, clientID string) ([]Record, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const recordColumns = `id, client_id, ts, direction::text, subject, body_preview,
	mail_thread_ref, mail_message_ref, outreach_attempt_number, created_at`

func (r *PGRepository) Create(ctx context.Context, rec Record) (Record, error) {
	query := fmt.Sprintf(`
		INSERT INTO communications
			(id, client_id, ts, direction, subject, body_preview, mail_thread_ref, mail_message_ref, outreach_attempt_number)
		VALUES
			(COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4::comm_direction, $5, $6, $7, $8, $9)
		RETURNING %s
	`, recordColumns)

	created, err := scanRecord(r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.ClientID,
		rec.Timestamp,
		rec.Direction,
		rec.Subject,
		rec.BodyPreview,
		rec.MailThreadRef,
		rec.MailMessageRef,
		rec.OutreachAttemptNumber,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrDuplicate
		}
		return Record{}, fmt.Errorf("comms: create: %w", err)
	}
	return created, nil
}

func (r *PGRepository) ListByClient(ctx context.Context, clientID string) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM communications
		WHERE client_id = $1
		ORDER BY ts DESC
	`, recordColumns)

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("comms: list: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, 16)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("comms: scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("comms: iterate: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	return rec, row.Scan(
		&rec.ID,
		&rec.ClientID,
		&rec.Timestamp,
		&rec.Direction,
		&rec.Subject,
		&rec.BodyPreview,
		&rec.MailThreadRef,
		&rec.MailMessageRef,
		&rec.OutreachAttemptNumber,
		&rec.CreatedAt,
	)
}
