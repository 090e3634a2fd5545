package comms

import "time"

// Direction distinguishes inbound from outbound mail.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Record mirrors the communications table: one row per message the practice
// sent or received for a client.
type Record struct {
	ID                    string
	ClientID              string
	Timestamp             time.Time
	Direction             Direction
	Subject               string
	BodyPreview           string
	MailThreadRef         *string
	MailMessageRef        *string
	OutreachAttemptNumber *int
	CreatedAt             time.Time
}
