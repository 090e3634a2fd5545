package template

import "time"

// Status represents the lifecycle of an outreach email template.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Record mirrors the email_templates table. Stage links a template to the
// outreach attempt number it is written for (1 = initial outreach).
type Record struct {
	ID          string
	Name        string
	Stage       int
	Subject     string
	Body        string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}
