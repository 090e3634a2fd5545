package outreach

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"intakeflow/client"
	"intakeflow/mail"
)

type fixture struct {
	repo       *memAttemptRepo
	clients    *fakeClientRepo
	commsRepo  *fakeCommsRepo
	mailbox    *fakeMailbox
	ledger     *Ledger
	reconciler *Reconciler
	orch       *Orchestrator
	clock      *time.Time
}

func newFixture(t *testing.T, clients ...client.Client) *fixture {
	t.Helper()
	repo := newMemAttemptRepo()
	clientRepo := newFakeClientRepo(clients...)
	commsRepo := &fakeCommsRepo{}
	mailbox := newFakeMailbox()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := &now

	seq := 0
	ledger := NewLedger(repo).
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("attempt-%d", seq) }).
		WithClock(func() time.Time { return *clock })
	commSeq := 0
	reconciler := NewReconciler(ledger, commsRepo, mailbox).
		WithIDGenerator(func() string { commSeq++; return fmt.Sprintf("comm-%d", commSeq) })
	orch := NewOrchestrator(clientRepo, ledger, reconciler, Config{TotalAttempts: 3}).
		WithClock(func() time.Time { return *clock }).
		WithConcurrency(2)

	return &fixture{
		repo:       repo,
		clients:    clientRepo,
		commsRepo:  commsRepo,
		mailbox:    mailbox,
		ledger:     ledger,
		reconciler: reconciler,
		orch:       orch,
		clock:      clock,
	}
}

func (f *fixture) send(t *testing.T, clientID string, number int, sentAt time.Time, window Interval) Attempt {
	t.Helper()
	ctx := context.Background()
	if _, err := f.ledger.InitializeForClient(ctx, clientID, 3); err != nil {
		t.Fatalf("init ledger: %v", err)
	}
	next, err := f.ledger.NextPending(ctx, clientID)
	if err != nil {
		t.Fatalf("next pending: %v", err)
	}
	if next == nil || next.AttemptNumber != number {
		t.Fatalf("expected attempt %d pending, got %+v", number, next)
	}
	sent, err := f.ledger.MarkSent(ctx, MarkSentParams{
		AttemptID:         next.ID,
		Subject:           fmt.Sprintf("Outreach %d", number),
		MailThreadRef:     fmt.Sprintf("thread-%s-%d", clientID, number),
		MailMessageRef:    fmt.Sprintf("out-%s-%d", clientID, number),
		SentAt:            sentAt,
		ResponseWindowEnd: ComputeWindowEnd(sentAt, window),
	})
	if err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	return sent
}

func TestCheckOne_MissingCredential(t *testing.T) {
	f := newFixture(t, client.Client{ID: "c1", Email: "pat@example.com", Status: client.StatusOutreachSent})
	if _, err := f.orch.CheckOne(context.Background(), "", "c1"); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestCheckOne_UnknownClient(t *testing.T) {
	f := newFixture(t)
	if _, err := f.orch.CheckOne(context.Background(), "token", "ghost"); !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("expected client.ErrNotFound, got %v", err)
	}
}

func TestCheckOne_SelfHealingInitialize(t *testing.T) {
	f := newFixture(t, client.Client{ID: "c1", Email: "pat@example.com", Status: client.StatusPendingOutreach})
	ctx := context.Background()

	res, err := f.orch.CheckOne(ctx, "token", "c1")
	if err != nil {
		t.Fatalf("check one: %v", err)
	}
	if res.NewStatus != nil || res.HasReply {
		t.Fatalf("expected no-op result for unsent plan, got %+v", res)
	}

	attempts, err := f.ledger.GetByClient(ctx, "c1")
	if err != nil {
		t.Fatalf("get attempts: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("expected self-healed plan of 3 attempts, got %d", len(attempts))
	}
	for i, a := range attempts {
		if a.AttemptNumber != i+1 || a.Status != AttemptPending {
			t.Fatalf("unexpected attempt %+v", a)
		}
	}
}

func TestCheckOne_AtMostOneReplyPerPass(t *testing.T) {
	f := newFixture(t, client.Client{ID: "c1", Email: "pat@example.com", Status: client.StatusFollowUp1})
	ctx := context.Background()

	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	a1 := f.send(t, "c1", 1, t0, Interval{Days: 3, Unit: CalendarDays})
	a2 := f.send(t, "c1", 2, t0.AddDate(0, 0, 4), Interval{Days: 3, Unit: CalendarDays})

	// The mailbox reports a reply in both threads.
	f.mailbox.replies[*a1.MailThreadRef] = []mail.Reply{
		{Timestamp: t0.AddDate(0, 0, 5), MessageRef: "reply-old-thread", FromAddress: "pat@example.com", PreviewText: "hello?"},
	}
	f.mailbox.replies[*a2.MailThreadRef] = []mail.Reply{
		{Timestamp: t0.AddDate(0, 0, 5).Add(time.Hour), MessageRef: "reply-new-thread", FromAddress: "pat@example.com", PreviewText: "yes please"},
	}

	res, err := f.orch.CheckOne(ctx, "token", "c1")
	if err != nil {
		t.Fatalf("check one: %v", err)
	}
	if !res.HasReply {
		t.Fatalf("expected reply, got %+v", res)
	}
	if res.NewStatus == nil || *res.NewStatus != client.StatusInCommunication {
		t.Fatalf("expected in_communication, got %+v", res.NewStatus)
	}

	// Most recent attempt wins; attempt 1 is never scanned after the hit.
	if len(res.Attempts) != 1 || res.Attempts[0].AttemptNumber != 2 {
		t.Fatalf("expected single scan of attempt 2, got %+v", res.Attempts)
	}
	if f.commsRepo.count() != 1 {
		t.Fatalf("expected exactly one communication, got %d", f.commsRepo.count())
	}
	comm := f.commsRepo.records[0]
	if comm.OutreachAttemptNumber == nil || *comm.OutreachAttemptNumber != 2 {
		t.Fatalf("expected communication attributed to attempt 2, got %+v", comm)
	}

	updated1, _ := f.repo.Get(ctx, a1.ID)
	if updated1.ResponseDetected {
		t.Fatal("attempt 1 must not be resolved by attempt 2's reply")
	}
}

func TestCheckOne_ReentrantScanSafety(t *testing.T) {
	f := newFixture(t, client.Client{ID: "c1", Email: "pat@example.com", Status: client.StatusOutreachSent})
	ctx := context.Background()

	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	a1 := f.send(t, "c1", 1, t0, Interval{Days: 3, Unit: CalendarDays})
	f.mailbox.replies[*a1.MailThreadRef] = []mail.Reply{
		{Timestamp: t0.Add(4 * time.Hour), MessageRef: "reply-1", FromAddress: "pat@example.com", PreviewText: "hi"},
	}

	first, err := f.orch.CheckOne(ctx, "token", "c1")
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if !first.HasReply || first.NewStatus == nil {
		t.Fatalf("expected detection on first pass, got %+v", first)
	}

	second, err := f.orch.CheckOne(ctx, "token", "c1")
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if second.HasReply || second.NewStatus != nil {
		t.Fatalf("expected second pass to be a no-op, got %+v", second)
	}
	if f.commsRepo.count() != 1 {
		t.Fatalf("expected one communication after two passes, got %d", f.commsRepo.count())
	}
	if got := len(f.clients.statusHistory); got != 1 {
		t.Fatalf("expected one status write, got %d (%v)", got, f.clients.statusHistory)
	}
}

func TestCheckOne_MailboxErrorDefersEscalation(t *testing.T) {
	f := newFixture(t, client.Client{ID: "c1", Email: "pat@example.com", Status: client.StatusOutreachSent})
	ctx := context.Background()

	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	a1 := f.send(t, "c1", 1, t0, Interval{Days: 3, Unit: CalendarDays})
	f.mailbox.errs[*a1.MailThreadRef] = fmt.Errorf("timeout: %w", mail.ErrUnavailable)

	*f.clock = t0.AddDate(0, 0, 5) // well past the window

	res, err := f.orch.CheckOne(ctx, "token", "c1")
	if err != nil {
		t.Fatalf("check one: %v", err)
	}
	if res.NewStatus != nil {
		t.Fatalf("expected no status change while the scan is failing, got %v", *res.NewStatus)
	}
	if len(res.Attempts) != 1 || res.Attempts[0].Err == nil {
		t.Fatalf("expected captured per-attempt error, got %+v", res.Attempts)
	}
}

// TestCheckOne_Lifecycle walks the concrete scenario: attempt 1 at T0 with a
// 3-day window, no reply at T0+1d, escalation at T0+4d, attempt 2 sent, reply
// at T0+5d.
func TestCheckOne_Lifecycle(t *testing.T) {
	f := newFixture(t, client.Client{ID: "c1", Email: "pat@example.com", Status: client.StatusOutreachSent})
	ctx := context.Background()

	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f.send(t, "c1", 1, t0, Interval{Days: 3, Unit: CalendarDays})

	// T0+1d: still waiting.
	*f.clock = t0.AddDate(0, 0, 1)
	res, err := f.orch.CheckOne(ctx, "token", "c1")
	if err != nil {
		t.Fatalf("check at T0+1d: %v", err)
	}
	if res.NewStatus != nil || res.HasReply {
		t.Fatalf("expected unchanged status inside window, got %+v", res)
	}

	// T0+4d: window elapsed, follow-up 1 becomes due.
	*f.clock = t0.AddDate(0, 0, 4)
	res, err = f.orch.CheckOne(ctx, "token", "c1")
	if err != nil {
		t.Fatalf("check at T0+4d: %v", err)
	}
	if res.NewStatus == nil || *res.NewStatus != client.StatusFollowUp1 {
		t.Fatalf("expected follow_up_1 due, got %+v", res.NewStatus)
	}

	// Attempt 2 goes out at T0+4d; the client replies in its thread a day later.
	a2 := f.send(t, "c1", 2, t0.AddDate(0, 0, 4), Interval{Days: 3, Unit: CalendarDays})
	f.mailbox.replies[*a2.MailThreadRef] = []mail.Reply{
		{Timestamp: t0.AddDate(0, 0, 5), MessageRef: "reply-2", FromAddress: "pat@example.com", PreviewText: "works for me"},
	}

	*f.clock = t0.AddDate(0, 0, 5).Add(time.Hour)
	res, err = f.orch.CheckOne(ctx, "token", "c1")
	if err != nil {
		t.Fatalf("check at T0+5d: %v", err)
	}
	if !res.HasReply {
		t.Fatalf("expected reply detected, got %+v", res)
	}
	if res.NewStatus == nil || *res.NewStatus != client.StatusInCommunication {
		t.Fatalf("expected in_communication, got %+v", res.NewStatus)
	}
	if f.commsRepo.count() != 1 {
		t.Fatalf("expected one communication, got %d", f.commsRepo.count())
	}
	comm := f.commsRepo.records[0]
	if comm.OutreachAttemptNumber == nil || *comm.OutreachAttemptNumber != 2 {
		t.Fatalf("expected communication on attempt 2, got %+v", comm)
	}
}

func TestCheckOne_ExhaustionClosesAsNoContact(t *testing.T) {
	f := newFixture(t, client.Client{ID: "c1", Email: "pat@example.com", Status: client.StatusFollowUp2})
	ctx := context.Background()

	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f.send(t, "c1", 1, t0, Interval{Days: 3, Unit: CalendarDays})
	f.send(t, "c1", 2, t0.AddDate(0, 0, 4), Interval{Days: 3, Unit: CalendarDays})
	f.send(t, "c1", 3, t0.AddDate(0, 0, 8), Interval{Days: 3, Unit: CalendarDays})

	*f.clock = t0.AddDate(0, 0, 12)
	res, err := f.orch.CheckOne(ctx, "token", "c1")
	if err != nil {
		t.Fatalf("check one: %v", err)
	}
	if res.NewStatus == nil || *res.NewStatus != client.StatusNoContactClose {
		t.Fatalf("expected no_contact_ok_close, got %+v", res.NewStatus)
	}
}

func TestCheckAll_MissingCredential(t *testing.T) {
	f := newFixture(t)
	if _, err := f.orch.CheckAll(context.Background(), ""); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestCheckAll_PartialFailure(t *testing.T) {
	f := newFixture(t,
		client.Client{ID: "a", Email: "a@example.com", Status: client.StatusOutreachSent},
		client.Client{ID: "b", Email: "b@example.com", Status: client.StatusOutreachSent},
		client.Client{ID: "c", Email: "c@example.com", Status: client.StatusOutreachSent},
		client.Client{ID: "d", Email: "d@example.com", Status: client.StatusClosed}, // not eligible
	)
	ctx := context.Background()
	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	aAttempt := f.send(t, "a", 1, t0, Interval{Days: 3, Unit: CalendarDays})
	bAttempt := f.send(t, "b", 1, t0, Interval{Days: 3, Unit: CalendarDays})
	f.send(t, "c", 1, t0, Interval{Days: 3, Unit: CalendarDays})

	// A replies, B's mailbox is down, C's window elapses.
	f.mailbox.replies[*aAttempt.MailThreadRef] = []mail.Reply{
		{Timestamp: t0.Add(6 * time.Hour), MessageRef: "reply-a", FromAddress: "a@example.com", PreviewText: "hi"},
	}
	f.mailbox.errs[*bAttempt.MailThreadRef] = fmt.Errorf("provider down: %w", mail.ErrUnavailable)

	*f.clock = t0.AddDate(0, 0, 4)

	batch, err := f.orch.CheckAll(ctx, "token")
	if err != nil {
		t.Fatalf("check all: %v", err)
	}

	if batch.ClientsChecked != 3 {
		t.Fatalf("expected 3 clients checked, got %d", batch.ClientsChecked)
	}
	if batch.RepliesFound != 1 {
		t.Fatalf("expected 1 reply, got %d", batch.RepliesFound)
	}
	// A moved to in_communication, C escalated to follow_up_1; B unchanged.
	if batch.StatusUpdates != 2 {
		t.Fatalf("expected 2 status updates, got %d", batch.StatusUpdates)
	}

	byClient := map[string]ClientResult{}
	for _, res := range batch.Results {
		byClient[res.ClientID] = res
	}
	if res := byClient["a"]; !res.HasReply || res.NewStatus == nil || *res.NewStatus != client.StatusInCommunication {
		t.Fatalf("unexpected result for a: %+v", res)
	}
	bRes := byClient["b"]
	if bRes.NewStatus != nil {
		t.Fatalf("expected no status change for b, got %v", *bRes.NewStatus)
	}
	if len(bRes.Attempts) != 1 || bRes.Attempts[0].Err == nil {
		t.Fatalf("expected captured error for b, got %+v", bRes.Attempts)
	}
	if res := byClient["c"]; res.NewStatus == nil || *res.NewStatus != client.StatusFollowUp1 {
		t.Fatalf("unexpected result for c: %+v", res)
	}
	if _, ok := byClient["d"]; ok {
		t.Fatal("closed client must not be checked")
	}
}
