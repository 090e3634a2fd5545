// Package mail defines the mailbox capability the outreach engine consumes
// and an HTTP client for the hosted mail provider.
package mail

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps transient provider failures (timeouts, 5xx). Callers
// treat it as retryable on the next scheduled pass.
var ErrUnavailable = errors.New("mail: mailbox unavailable")

// AccessToken is the caller-supplied mailbox credential. It is threaded
// through every mailbox call explicitly rather than pulled from a session.
type AccessToken string

// Reply is one inbound message found in an attempt's thread.
type Reply struct {
	Timestamp   time.Time
	MessageRef  string
	FromAddress string
	PreviewText string
}

// Mailbox searches a provider mailbox for replies to a sent message.
//
// FindRepliesInThread returns the messages in threadRef authored by
// fromAddress, excluding the original outbound message excludeMessageRef.
// Order is unspecified; callers pick the latest by timestamp.
type Mailbox interface {
	FindRepliesInThread(ctx context.Context, token AccessToken, threadRef, excludeMessageRef, fromAddress string) ([]Reply, error)
}
