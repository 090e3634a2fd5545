package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Initializer races to lay down the dense attempt plan for the same client.
// Every pass re-inserts all slots; the unique (client_id, attempt_number)
// constraint must collapse concurrent initializers onto one row per slot.
func Initializer(ctx context.Context, pool *pgxpool.Pool, clientID string, totalAttempts int, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		for n := 1; n <= totalAttempts; n++ {
			attemptType := "initial_outreach"
			if n > 1 {
				attemptType = fmt.Sprintf("follow_up_%d", n-1)
			}
			_, err := pool.Exec(ctx, `INSERT INTO outreach_attempts (id, client_id, attempt_number, attempt_type, status)
                                       VALUES ($1,$2,$3,$4::outreach_attempt_type,'pending')
                                       ON CONFLICT (client_id, attempt_number) DO NOTHING`,
				uuid.NewString(), clientID, n, attemptType)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23505" {
					// expected under contention
					continue
				}
				return fmt.Errorf("initializer insert: %w", err)
			}
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Sender marks the lowest pending attempt as sent, stamping all send fields
// in one conditional update so a losing racer is a clean no-op.
func Sender(ctx context.Context, pool *pgxpool.Pool, clientID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		var attemptID string
		var attemptNumber int
		err = tx.QueryRow(ctx, `SELECT id, attempt_number FROM outreach_attempts
                                 WHERE client_id=$1 AND status='pending'
                                 ORDER BY attempt_number LIMIT 1 FOR UPDATE SKIP LOCKED`, clientID).Scan(&attemptID, &attemptNumber)
		if err == nil {
			threadRef := fmt.Sprintf("thread-%s-%d", clientID, attemptNumber)
			messageRef := fmt.Sprintf("msg-out-%s-%d", clientID, attemptNumber)
			_, err = tx.Exec(ctx, `UPDATE outreach_attempts
                                    SET status='sent', subject='Checking in', preview_text='Just following up',
                                        sent_at=now(), mail_thread_ref=$2, mail_message_ref=$3,
                                        response_window_end=now() + interval '3 days', updated_at=now()
                                    WHERE id=$1 AND status='pending'`, attemptID, threadRef, messageRef)
			if err == nil {
				_, _ = tx.Exec(ctx, `INSERT INTO communications (client_id, ts, direction, subject, body_preview, mail_thread_ref, mail_message_ref, outreach_attempt_number)
                                      VALUES ($1, now(), 'out', 'Checking in', 'Just following up', $2, $3, $4)`,
					clientID, threadRef, messageRef, attemptNumber)
			}
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Detector simulates reply reconciliation: it repeatedly tries to record the
// same inbound reply against a random sent attempt. Detection must be
// monotonic and the inbound communication unique per provider message ref.
func Detector(ctx context.Context, pool *pgxpool.Pool, clientID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		var attemptID string
		var attemptNumber int
		err := pool.QueryRow(ctx, `SELECT id, attempt_number FROM outreach_attempts
                                    WHERE client_id=$1 AND status='sent'
                                    ORDER BY random() LIMIT 1`, clientID).Scan(&attemptID, &attemptNumber)
		if err == nil {
			replyRef := fmt.Sprintf("msg-in-%s-%d", clientID, attemptNumber)
			_, _ = pool.Exec(ctx, `UPDATE outreach_attempts
                                    SET response_detected=true, response_detected_at=now(),
                                        response_message_ref=$2, updated_at=now()
                                    WHERE id=$1 AND response_detected=false`, attemptID, replyRef)
			_, err = pool.Exec(ctx, `INSERT INTO communications (client_id, ts, direction, subject, body_preview, mail_thread_ref, mail_message_ref, outreach_attempt_number)
                                      VALUES ($1, now(), 'in', 'Re: Checking in', 'Sounds good', $2, $3, $4)`,
				clientID, fmt.Sprintf("thread-%s-%d", clientID, attemptNumber), replyRef, attemptNumber)
			if err != nil {
				var pgErr *pgconn.PgError
				if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
					return fmt.Errorf("detector insert comm: %w", err)
				}
				// duplicate reply ref: expected when racing another detector
			}
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

// StatusMover flips the client through outreach-eligible statuses the way a
// coordinator or the orchestrator would.
func StatusMover(ctx context.Context, pool *pgxpool.Pool, clientID string, stop <-chan struct{}) error {
	statuses := []string{"outreach_sent", "follow_up_1", "follow_up_2", "in_communication"}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		status := statuses[rand.Intn(len(statuses))]
		if _, err := pool.Exec(ctx, `UPDATE clients SET status=$2::client_status, updated_at=now() WHERE id=$1`, clientID, status); err != nil {
			return fmt.Errorf("status mover: %w", err)
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}

// SettingsWriter churns the outreach configuration keys while checks run.
func SettingsWriter(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		total := 1 + rand.Intn(10)
		_, err := pool.Exec(ctx, `INSERT INTO settings (key, value) VALUES ('totalOutreachAttempts', $1)
                                   ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()`,
			fmt.Sprintf("%d", total))
		if err != nil {
			return fmt.Errorf("settings writer: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
