package outreach

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGAttemptRepository implements AttemptRepository backed by PostgreSQL. The
// unique index on (client_id, attempt_number) enforces dense-plan idempotency
// under concurrent initializers, and MarkSent/RecordResponse are single-row
// conditional updates so concurrent duplicate scans cannot corrupt state.
type PGAttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *PGAttemptRepository {
	return &PGAttemptRepository{pool: pool}
}

const attemptColumns = `id, client_id, attempt_number, attempt_type::text, status::text,
	subject, preview_text, sent_at, mail_thread_ref, mail_message_ref, response_window_end,
	response_detected, response_detected_at, response_message_ref, created_at, updated_at`

func (r *PGAttemptRepository) ListByClient(ctx context.Context, clientID string) ([]Attempt, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM outreach_attempts
		WHERE client_id = $1
		ORDER BY attempt_number ASC
	`, attemptColumns)

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("outreach: list attempts: %w", err)
	}
	defer rows.Close()

	out := make([]Attempt, 0, 4)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("outreach: scan attempt: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outreach: iterate attempts: %w", err)
	}
	return out, nil
}

func (r *PGAttemptRepository) Get(ctx context.Context, id string) (Attempt, error) {
	query := fmt.Sprintf(`SELECT %s FROM outreach_attempts WHERE id = $1`, attemptColumns)
	a, err := scanAttempt(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, fmt.Errorf("outreach: get attempt: %w", err)
	}
	return a, nil
}

// InsertIfAbsent inserts the attempt unless its (client, number) slot is
// already taken; a conflicting insert is silently dropped.
func (r *PGAttemptRepository) InsertIfAbsent(ctx context.Context, attempt Attempt) error {
	const query = `
		INSERT INTO outreach_attempts (id, client_id, attempt_number, attempt_type, status)
		VALUES ($1, $2, $3, $4::outreach_attempt_type, $5::outreach_attempt_status)
		ON CONFLICT (client_id, attempt_number) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query,
		attempt.ID,
		attempt.ClientID,
		attempt.AttemptNumber,
		attempt.Type,
		attempt.Status,
	); err != nil {
		return fmt.Errorf("outreach: insert attempt: %w", err)
	}
	return nil
}

func (r *PGAttemptRepository) MarkSent(ctx context.Context, params MarkSentParams) (Attempt, error) {
	query := fmt.Sprintf(`
		UPDATE outreach_attempts
		SET status = 'sent',
		    subject = $2,
		    preview_text = $3,
		    mail_thread_ref = $4,
		    mail_message_ref = $5,
		    sent_at = $6,
		    response_window_end = $7,
		    updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING %s
	`, attemptColumns)

	a, err := scanAttempt(r.pool.QueryRow(ctx, query,
		params.AttemptID,
		params.Subject,
		params.PreviewText,
		params.MailThreadRef,
		params.MailMessageRef,
		params.SentAt,
		params.ResponseWindowEnd,
	))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Attempt{}, fmt.Errorf("outreach: mark sent: %w", err)
	}

	// No pending row matched: distinguish a missing attempt from a bad
	// transition.
	if _, getErr := r.Get(ctx, params.AttemptID); getErr != nil {
		return Attempt{}, getErr
	}
	return Attempt{}, fmt.Errorf("outreach: mark sent %s: %w", params.AttemptID, ErrInvalidTransition)
}

func (r *PGAttemptRepository) RecordResponse(ctx context.Context, params RecordResponseParams) (Attempt, error) {
	query := fmt.Sprintf(`
		UPDATE outreach_attempts
		SET response_detected = true,
		    response_detected_at = $2,
		    response_message_ref = $3,
		    updated_at = now()
		WHERE id = $1 AND response_detected = false
		RETURNING %s
	`, attemptColumns)

	a, err := scanAttempt(r.pool.QueryRow(ctx, query,
		params.AttemptID,
		params.DetectedAt,
		params.ResponseMessageRef,
	))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Attempt{}, fmt.Errorf("outreach: record response: %w", err)
	}

	// Already detected is a no-op so re-entrant scans stay idempotent.
	existing, getErr := r.Get(ctx, params.AttemptID)
	if getErr != nil {
		return Attempt{}, getErr
	}
	return existing, nil
}

func scanAttempt(row pgx.Row) (Attempt, error) {
	var (
		a       Attempt
		subject *string
		preview *string
	)
	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.AttemptNumber,
		&a.Type,
		&a.Status,
		&subject,
		&preview,
		&a.SentAt,
		&a.MailThreadRef,
		&a.MailMessageRef,
		&a.ResponseWindowEnd,
		&a.ResponseDetected,
		&a.ResponseDetectedAt,
		&a.ResponseMessageRef,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return Attempt{}, err
	}
	if subject != nil {
		a.Subject = *subject
	}
	if preview != nil {
		a.PreviewText = *preview
	}
	return a, nil
}
