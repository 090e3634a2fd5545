package clinician

import "time"

// Profile mirrors the clinicians table.
type Profile struct {
	ID           string
	FullName     string
	Credential   string
	Specialties  []string
	AcceptingNew bool
	CreatedAt    time.Time
}
