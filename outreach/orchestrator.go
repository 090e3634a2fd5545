package outreach

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"intakeflow/client"
	"intakeflow/mail"
)

// AttemptOutcome is the per-attempt slice of a check result. Err carries a
// captured mailbox or storage failure; it never aborts the wider run.
type AttemptOutcome struct {
	AttemptNumber int
	HasReply      bool
	Err           error
}

// ClientResult is the structured outcome of checking one client.
type ClientResult struct {
	ClientID       string
	PreviousStatus client.Status
	NewStatus      *client.Status
	HasReply       bool
	Attempts       []AttemptOutcome
	Err            error
}

// BatchResult aggregates a checkAll pass. Counts reflect successful
// detections and updates only; per-client errors are listed, never swallowed.
type BatchResult struct {
	ClientsChecked int
	RepliesFound   int
	StatusUpdates  int
	Results        []ClientResult
}

// Orchestrator composes the ledger, reconciler, window calculator and
// transition engine into idempotent per-client units of work.
type Orchestrator struct {
	clients    client.Repository
	ledger     *Ledger
	reconciler *Reconciler
	cfg        Config
	now        func() time.Time

	// concurrency bounds the checkAll worker pool; clients are independent
	// units of isolation so they may be processed in parallel.
	concurrency int
}

func NewOrchestrator(clients client.Repository, ledger *Ledger, reconciler *Reconciler, cfg Config) *Orchestrator {
	if cfg.TotalAttempts < 1 || cfg.TotalAttempts > MaxTotalAttempts {
		cfg.TotalAttempts = DefaultTotalAttempts
	}
	return &Orchestrator{
		clients:     clients,
		ledger:      ledger,
		reconciler:  reconciler,
		cfg:         cfg,
		now:         time.Now,
		concurrency: 4,
	}
}

func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

func (o *Orchestrator) WithConcurrency(n int) *Orchestrator {
	if n > 0 {
		o.concurrency = n
	}
	return o
}

// CheckOne reconciles a single client's outreach state: scan open attempts
// for replies most-recent-first, stop at the first hit and move the client to
// in_communication; otherwise evaluate whether the response window of the
// latest sent attempt has elapsed and escalate. Safe to call repeatedly.
func (o *Orchestrator) CheckOne(ctx context.Context, token mail.AccessToken, clientID string) (ClientResult, error) {
	if token == "" {
		return ClientResult{}, ErrMissingCredential
	}
	if clientID == "" {
		return ClientResult{}, fmt.Errorf("outreach: missing client id")
	}

	c, err := o.clients.GetByID(ctx, clientID)
	if err != nil {
		return ClientResult{}, err
	}

	result := ClientResult{ClientID: c.ID, PreviousStatus: c.Status}

	attempts, err := o.ledger.GetByClient(ctx, clientID)
	if err != nil {
		return result, err
	}
	// Self-healing: a client parked in an outreach status with no ledger
	// predates the engine; materialise its plan now.
	if len(attempts) == 0 && client.IsOutreachEligible(c.Status) {
		attempts, err = o.ledger.InitializeForClient(ctx, clientID, o.cfg.TotalAttempts)
		if err != nil {
			return result, err
		}
	}

	open := openAttempts(attempts)
	scanFailed := false
	for _, attempt := range open {
		scan, scanErr := o.reconciler.ScanForReply(ctx, token, attempt, c.Email)
		outcome := AttemptOutcome{AttemptNumber: attempt.AttemptNumber, HasReply: scan.HasReply, Err: scanErr}
		result.Attempts = append(result.Attempts, outcome)
		if scanErr != nil {
			scanFailed = true
			continue
		}
		if scan.HasReply {
			result.HasReply = true
			if c.Status != client.StatusInCommunication {
				if _, err := o.clients.UpdateStatus(ctx, c.ID, client.StatusInCommunication); err != nil {
					return result, fmt.Errorf("outreach: set in_communication: %w", err)
				}
				next := client.StatusInCommunication
				result.NewStatus = &next
			}
			return result, nil
		}
	}

	// A failed scan means a reply could be sitting in that thread; defer
	// any escalation to the next pass rather than risk closing a client
	// who answered.
	if scanFailed {
		return result, nil
	}

	latest, ok := latestSent(attempts)
	if !ok {
		return result, nil
	}
	windowEnd := o.windowEnd(latest)

	next, change := DecideNextStatus(o.now(), Decision{
		Current:          c.Status,
		ResponseDetected: latest.ResponseDetected,
		SentAt:           latest.SentAt,
		WindowEnd:        windowEnd,
		AttemptNumber:    latest.AttemptNumber,
		TotalAttempts:    o.cfg.TotalAttempts,
	})
	if change {
		if _, err := o.clients.UpdateStatus(ctx, c.ID, next); err != nil {
			return result, fmt.Errorf("outreach: update status: %w", err)
		}
		result.NewStatus = &next
	}
	return result, nil
}

// CheckAll runs CheckOne over every client in an outreach-eligible status.
// A failure on one client is captured in its result entry; the pass always
// completes and always reports aggregate counts.
func (o *Orchestrator) CheckAll(ctx context.Context, token mail.AccessToken) (BatchResult, error) {
	if token == "" {
		return BatchResult{}, ErrMissingCredential
	}

	eligible, err := o.clients.GetByStatusIn(ctx, client.OutreachEligibleStatuses())
	if err != nil {
		return BatchResult{}, fmt.Errorf("outreach: load eligible clients: %w", err)
	}

	var (
		mu      sync.Mutex
		results = make([]ClientResult, 0, len(eligible))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for _, c := range eligible {
		c := c
		g.Go(func() error {
			res, err := o.CheckOne(gctx, token, c.ID)
			if err != nil {
				res.ClientID = c.ID
				res.PreviousStatus = c.Status
				res.Err = err
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	// Goroutines never return errors; Wait only observes ctx cancellation.
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].ClientID < results[j].ClientID })

	batch := BatchResult{ClientsChecked: len(results), Results: results}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if res.HasReply {
			batch.RepliesFound++
		}
		if res.NewStatus != nil {
			batch.StatusUpdates++
		}
	}
	return batch, nil
}

// windowEnd prefers the deadline recorded at send time and falls back to
// recomputing it from the configured interval for attempts persisted before
// deadlines were stored.
func (o *Orchestrator) windowEnd(a Attempt) time.Time {
	if a.ResponseWindowEnd != nil {
		return *a.ResponseWindowEnd
	}
	if a.SentAt == nil {
		return time.Time{}
	}
	return ComputeWindowEnd(*a.SentAt, o.cfg.IntervalForStage(a.AttemptNumber))
}

// openAttempts returns the reply-scannable attempts most recent first: a
// reply is most likely to land on the latest outbound message, and stopping
// at the first hit avoids attributing one reply to several attempts.
func openAttempts(attempts []Attempt) []Attempt {
	open := make([]Attempt, 0, len(attempts))
	for _, a := range attempts {
		if a.Eligible() {
			open = append(open, a)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].AttemptNumber > open[j].AttemptNumber })
	return open
}

// latestSent returns the highest-numbered sent attempt.
func latestSent(attempts []Attempt) (Attempt, bool) {
	var (
		latest Attempt
		found  bool
	)
	for _, a := range attempts {
		if a.Status != AttemptSent {
			continue
		}
		if !found || a.AttemptNumber > latest.AttemptNumber {
			latest = a
			found = true
		}
	}
	return latest, found
}
