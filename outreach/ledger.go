package outreach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AttemptRepository is the storage the ledger drives. Implementations must
// make InsertIfAbsent, MarkSent and RecordResponse atomic single-row writes;
// the engine relies on that instead of in-process locking.
type AttemptRepository interface {
	ListByClient(ctx context.Context, clientID string) ([]Attempt, error)
	Get(ctx context.Context, id string) (Attempt, error)
	InsertIfAbsent(ctx context.Context, attempt Attempt) error
	MarkSent(ctx context.Context, params MarkSentParams) (Attempt, error)
	RecordResponse(ctx context.Context, params RecordResponseParams) (Attempt, error)
}

// MarkSentParams carries the fields set together when an attempt goes out.
type MarkSentParams struct {
	AttemptID         string
	Subject           string
	PreviewText       string
	MailThreadRef     string
	MailMessageRef    string
	SentAt            time.Time
	ResponseWindowEnd time.Time
}

// RecordResponseParams carries the fields set together when a reply is
// matched to an attempt.
type RecordResponseParams struct {
	AttemptID          string
	DetectedAt         time.Time
	ResponseMessageRef string
}

// Ledger owns the ordered outreach-attempt plan for each client.
type Ledger struct {
	repo  AttemptRepository
	idGen func() string
	now   func() time.Time
}

func NewLedger(repo AttemptRepository) *Ledger {
	return &Ledger{
		repo:  repo,
		idGen: func() string { return uuid.NewString() },
		now:   time.Now,
	}
}

func (l *Ledger) WithIDGenerator(gen func() string) *Ledger {
	l.idGen = gen
	return l
}

func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// InitializeForClient materialises the attempt plan 1..totalAttempts for the
// client, creating only the numbers that do not exist yet. It is idempotent:
// calling it again with the same plan size changes nothing. The full set,
// sorted by attempt number, is returned.
func (l *Ledger) InitializeForClient(ctx context.Context, clientID string, totalAttempts int) ([]Attempt, error) {
	if clientID == "" {
		return nil, fmt.Errorf("outreach: missing client id")
	}
	if totalAttempts < 1 || totalAttempts > MaxTotalAttempts {
		return nil, fmt.Errorf("outreach: total attempts %d out of range [1,%d]", totalAttempts, MaxTotalAttempts)
	}

	existing, err := l.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	have := make(map[int]bool, len(existing))
	for _, a := range existing {
		have[a.AttemptNumber] = true
	}

	for n := 1; n <= totalAttempts; n++ {
		if have[n] {
			continue
		}
		attempt := Attempt{
			ID:            l.idGen(),
			ClientID:      clientID,
			AttemptNumber: n,
			Type:          TypeForAttempt(n),
			Status:        AttemptPending,
			CreatedAt:     l.now(),
			UpdatedAt:     l.now(),
		}
		if err := l.repo.InsertIfAbsent(ctx, attempt); err != nil {
			return nil, fmt.Errorf("outreach: initialize attempt %d: %w", n, err)
		}
	}

	return l.repo.ListByClient(ctx, clientID)
}

// GetByClient returns the client's attempts sorted ascending by number.
func (l *Ledger) GetByClient(ctx context.Context, clientID string) ([]Attempt, error) {
	return l.repo.ListByClient(ctx, clientID)
}

// NextPending returns the lowest-numbered pending attempt, or nil when every
// attempt in the plan has been sent.
func (l *Ledger) NextPending(ctx context.Context, clientID string) (*Attempt, error) {
	attempts, err := l.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	for i := range attempts {
		if attempts[i].Status == AttemptPending {
			return &attempts[i], nil
		}
	}
	return nil, nil
}

// MarkSent transitions a pending attempt to sent, recording the outbound
// message's mailbox references and the reply deadline in one write. A
// non-pending attempt is rejected with ErrInvalidTransition.
func (l *Ledger) MarkSent(ctx context.Context, params MarkSentParams) (Attempt, error) {
	if params.AttemptID == "" {
		return Attempt{}, fmt.Errorf("outreach: mark sent missing attempt id")
	}
	if params.MailThreadRef == "" || params.MailMessageRef == "" {
		return Attempt{}, fmt.Errorf("outreach: mark sent missing mailbox refs")
	}
	if params.SentAt.IsZero() {
		params.SentAt = l.now()
	}
	return l.repo.MarkSent(ctx, params)
}

// RecordResponse marks a reply as detected. Detection is monotonic: a second
// call for the same attempt is a no-op, not an error, so re-entrant scans
// stay safe.
func (l *Ledger) RecordResponse(ctx context.Context, params RecordResponseParams) (Attempt, error) {
	if params.AttemptID == "" {
		return Attempt{}, fmt.Errorf("outreach: record response missing attempt id")
	}
	if params.ResponseMessageRef == "" {
		return Attempt{}, fmt.Errorf("outreach: record response missing message ref")
	}
	if params.DetectedAt.IsZero() {
		params.DetectedAt = l.now()
	}
	return l.repo.RecordResponse(ctx, params)
}
