package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intakeflow/comms"
	"intakeflow/mail"
)

// ScanResult reports the outcome of scanning one attempt's thread.
type ScanResult struct {
	// Eligible is false when the attempt was skipped without a mailbox
	// call: unsent, missing its mailbox refs, or already resolved.
	Eligible bool
	HasReply bool

	LatestReplyAt         time.Time
	LatestReplyMessageRef string
	LatestReplyPreview    string
}

// Reconciler matches inbound mail to sent attempts. On a hit it records the
// response on the ledger and appends exactly one inbound communication.
type Reconciler struct {
	ledger  *Ledger
	comms   comms.Repository
	mailbox mail.Mailbox
	idGen   func() string
}

func NewReconciler(ledger *Ledger, commsRepo comms.Repository, mailbox mail.Mailbox) *Reconciler {
	return &Reconciler{
		ledger:  ledger,
		comms:   commsRepo,
		mailbox: mailbox,
		idGen:   func() string { return uuid.NewString() },
	}
}

func (r *Reconciler) WithIDGenerator(gen func() string) *Reconciler {
	r.idGen = gen
	return r
}

// ScanForReply asks the mailbox for messages in the attempt's thread authored
// by the client, picks the latest one as the reply, and materialises it.
// Mailbox failures are returned to the caller so they can be captured
// per-attempt without aborting the client's remaining attempts.
func (r *Reconciler) ScanForReply(ctx context.Context, token mail.AccessToken, attempt Attempt, clientEmail string) (ScanResult, error) {
	if token == "" {
		return ScanResult{}, ErrMissingCredential
	}
	if !attempt.Eligible() {
		return ScanResult{}, nil
	}

	replies, err := r.mailbox.FindRepliesInThread(ctx, token, *attempt.MailThreadRef, *attempt.MailMessageRef, clientEmail)
	if err != nil {
		return ScanResult{Eligible: true}, err
	}

	latest, ok := latestReply(replies, *attempt.MailMessageRef)
	if !ok {
		return ScanResult{Eligible: true}, nil
	}

	if _, err := r.ledger.RecordResponse(ctx, RecordResponseParams{
		AttemptID:          attempt.ID,
		DetectedAt:         latest.Timestamp,
		ResponseMessageRef: latest.MessageRef,
	}); err != nil {
		return ScanResult{Eligible: true}, fmt.Errorf("outreach: record reply on attempt %d: %w", attempt.AttemptNumber, err)
	}

	num := attempt.AttemptNumber
	rec := comms.Record{
		ID:                    r.idGen(),
		ClientID:              attempt.ClientID,
		Timestamp:             latest.Timestamp,
		Direction:             comms.DirectionIn,
		Subject:               attempt.Subject,
		BodyPreview:           latest.PreviewText,
		MailThreadRef:         attempt.MailThreadRef,
		MailMessageRef:        &latest.MessageRef,
		OutreachAttemptNumber: &num,
	}
	if _, err := r.comms.Create(ctx, rec); err != nil {
		// A duplicate means a previous pass already materialised this
		// reply; the detection itself stands.
		if !errors.Is(err, comms.ErrDuplicate) {
			return ScanResult{Eligible: true}, fmt.Errorf("outreach: append communication: %w", err)
		}
	}

	return ScanResult{
		Eligible:              true,
		HasReply:              true,
		LatestReplyAt:         latest.Timestamp,
		LatestReplyMessageRef: latest.MessageRef,
		LatestReplyPreview:    latest.PreviewText,
	}, nil
}

// latestReply picks the newest message that is not the original outbound.
func latestReply(replies []mail.Reply, excludeMessageRef string) (mail.Reply, bool) {
	var (
		latest mail.Reply
		found  bool
	)
	for _, reply := range replies {
		if reply.MessageRef == "" || reply.MessageRef == excludeMessageRef {
			continue
		}
		if !found || reply.Timestamp.After(latest.Timestamp) {
			latest = reply
			found = true
		}
	}
	return latest, found
}
