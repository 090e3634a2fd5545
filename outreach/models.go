package outreach

import (
	"errors"
	"fmt"
	"time"
)

// AttemptStatus is the lifecycle of one outbound attempt. Reply detection is
// tracked separately on the attempt so sent stays terminal.
type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptSent    AttemptStatus = "sent"
)

// AttemptType labels the position of an attempt in the sequence.
type AttemptType string

const TypeInitialOutreach AttemptType = "initial_outreach"

// TypeForAttempt returns initial_outreach for attempt 1 and follow_up_k for
// attempt k+1.
func TypeForAttempt(n int) AttemptType {
	if n <= 1 {
		return TypeInitialOutreach
	}
	return AttemptType(fmt.Sprintf("follow_up_%d", n-1))
}

// Attempt mirrors the outreach_attempts table. Send fields (SentAt, the two
// mail refs, Subject, PreviewText, ResponseWindowEnd) are set together by
// MarkSent; response fields are set together by RecordResponse.
type Attempt struct {
	ID            string
	ClientID      string
	AttemptNumber int
	Type          AttemptType
	Status        AttemptStatus

	Subject           string
	PreviewText       string
	SentAt            *time.Time
	MailThreadRef     *string
	MailMessageRef    *string
	ResponseWindowEnd *time.Time

	ResponseDetected   bool
	ResponseDetectedAt *time.Time
	ResponseMessageRef *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Eligible reports whether the attempt can be scanned for a reply: it has
// been sent, carries its mailbox references, and no reply was detected yet.
func (a Attempt) Eligible() bool {
	return a.Status == AttemptSent &&
		a.MailThreadRef != nil && *a.MailThreadRef != "" &&
		a.MailMessageRef != nil && *a.MailMessageRef != "" &&
		!a.ResponseDetected
}

var (
	// ErrAttemptNotFound signals an unknown attempt id.
	ErrAttemptNotFound = errors.New("outreach: attempt not found")
	// ErrInvalidTransition signals a caller bug, e.g. marking a non-pending
	// attempt as sent.
	ErrInvalidTransition = errors.New("outreach: invalid attempt transition")
	// ErrMissingCredential signals that the caller supplied no mailbox token.
	ErrMissingCredential = errors.New("outreach: missing mailbox credential")
)

// Config is the explicit engine configuration. It is passed into the ledger
// initializer, the transition engine and the orchestrator instead of being
// read from ambient state.
type Config struct {
	// TotalAttempts is the size of the per-client attempt plan.
	TotalAttempts int
	// Intervals holds the response-window interval per attempt stage,
	// indexed by attempt number starting at 1. Missing stages fall back to
	// DefaultInterval.
	Intervals map[int]Interval
}

// DefaultTotalAttempts is used when no setting overrides the plan size.
const DefaultTotalAttempts = 3

// MaxTotalAttempts bounds the plan size to the follow-up statuses the
// workflow enumerates.
const MaxTotalAttempts = 10

// DefaultConfig returns the stock three-attempt plan with the default
// response window on every stage.
func DefaultConfig() Config {
	return Config{TotalAttempts: DefaultTotalAttempts}
}

// IntervalForStage returns the configured interval for attempt number n.
func (c Config) IntervalForStage(n int) Interval {
	if iv, ok := c.Intervals[n]; ok {
		return iv
	}
	return DefaultInterval()
}
