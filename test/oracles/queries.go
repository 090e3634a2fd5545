package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_dense_attempt_plan",
			SQL: `SELECT client_id, COUNT(*), MAX(attempt_number) FROM outreach_attempts
                  GROUP BY client_id
                  HAVING MAX(attempt_number) <> COUNT(*) OR MIN(attempt_number) <> 1`,
		},
		{
			Name: "O2_sent_fields_atomic",
			SQL: `SELECT id, client_id, attempt_number FROM outreach_attempts
                  WHERE status = 'sent'
                  AND (sent_at IS NULL OR mail_thread_ref IS NULL OR mail_message_ref IS NULL
                       OR response_window_end IS NULL)`,
		},
		{
			Name: "O3_pending_has_no_send_fields",
			SQL: `SELECT id, client_id, attempt_number FROM outreach_attempts
                  WHERE status = 'pending'
                  AND (sent_at IS NOT NULL OR mail_thread_ref IS NOT NULL
                       OR mail_message_ref IS NOT NULL OR response_detected)`,
		},
		{
			Name: "O4_response_fields_atomic",
			SQL: `SELECT id, client_id, attempt_number FROM outreach_attempts
                  WHERE (response_detected AND (response_detected_at IS NULL OR response_message_ref IS NULL))
                     OR (NOT response_detected AND (response_detected_at IS NOT NULL OR response_message_ref IS NOT NULL))`,
		},
		{
			Name: "O5_window_after_send",
			SQL: `SELECT id, client_id, attempt_number FROM outreach_attempts
                  WHERE sent_at IS NOT NULL AND response_window_end IS NOT NULL
                  AND response_window_end <= sent_at`,
		},
		{
			Name: "O6_unique_inbound_comm",
			SQL: `SELECT mail_message_ref, COUNT(*) FROM communications
                  WHERE direction = 'in' AND mail_message_ref IS NOT NULL
                  GROUP BY mail_message_ref HAVING COUNT(*) > 1`,
		},
		{
			Name: "O7_inbound_comm_attribution",
			SQL: `SELECT c.id, c.client_id FROM communications c
                  WHERE c.direction = 'in' AND c.outreach_attempt_number IS NOT NULL
                  AND NOT EXISTS (
                      SELECT 1 FROM outreach_attempts a
                      WHERE a.client_id = c.client_id
                        AND a.attempt_number = c.outreach_attempt_number
                        AND a.status = 'sent')`,
		},
		{
			Name: "O8_outbound_comm_backed_by_attempt",
			SQL: `SELECT c.id, c.client_id FROM communications c
                  WHERE c.direction = 'out' AND c.outreach_attempt_number IS NOT NULL
                  AND NOT EXISTS (
                      SELECT 1 FROM outreach_attempts a
                      WHERE a.client_id = c.client_id
                        AND a.attempt_number = c.outreach_attempt_number
                        AND a.mail_message_ref = c.mail_message_ref)`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
