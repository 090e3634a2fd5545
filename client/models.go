package client

import "time"

// Status is the closed set of intake workflow states a client can occupy.
// The outreach engine only writes the subset between pending_outreach and
// no_contact_ok_close; the remaining states are exits reached once a reply
// is confirmed or a human intervenes.
type Status string

const (
	StatusPendingOutreach Status = "pending_outreach"
	StatusOutreachSent    Status = "outreach_sent"
	StatusFollowUp1       Status = "follow_up_1"
	StatusFollowUp2       Status = "follow_up_2"
	StatusFollowUp3       Status = "follow_up_3"
	StatusFollowUp4       Status = "follow_up_4"
	StatusFollowUp5       Status = "follow_up_5"
	StatusFollowUp6       Status = "follow_up_6"
	StatusFollowUp7       Status = "follow_up_7"
	StatusFollowUp8       Status = "follow_up_8"
	StatusFollowUp9       Status = "follow_up_9"
	StatusInCommunication Status = "in_communication"
	StatusReadyToSchedule Status = "ready_to_schedule"
	StatusReferredOut     Status = "referred_out"
	StatusNoContactClose  Status = "no_contact_ok_close"
	StatusClosed          Status = "closed"
)

// followUpByAttempt maps the attempt number that is due to be sent to the
// "follow-up due" status announcing it. Attempt 1 is the initial outreach, so
// the table starts at 2.
var followUpByAttempt = map[int]Status{
	2:  StatusFollowUp1,
	3:  StatusFollowUp2,
	4:  StatusFollowUp3,
	5:  StatusFollowUp4,
	6:  StatusFollowUp5,
	7:  StatusFollowUp6,
	8:  StatusFollowUp7,
	9:  StatusFollowUp8,
	10: StatusFollowUp9,
}

// FollowUpDueStatus returns the status signalling that attempt number n is
// due to be sent. It reports false when n is out of the supported range.
func FollowUpDueStatus(n int) (Status, bool) {
	s, ok := followUpByAttempt[n]
	return s, ok
}

// IsValidStatus reports whether s is one of the enumerated workflow states.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPendingOutreach, StatusOutreachSent, StatusInCommunication,
		StatusReadyToSchedule, StatusReferredOut, StatusNoContactClose, StatusClosed:
		return true
	}
	for _, v := range followUpByAttempt {
		if v == s {
			return true
		}
	}
	return false
}

// OutreachEligibleStatuses lists every state in which the outreach engine
// still owns the client: initial outreach pending or sent, and all follow-up
// positions. Exit states are excluded on purpose.
func OutreachEligibleStatuses() []Status {
	out := []Status{StatusPendingOutreach, StatusOutreachSent}
	for n := 2; ; n++ {
		s, ok := followUpByAttempt[n]
		if !ok {
			break
		}
		out = append(out, s)
	}
	return out
}

// IsOutreachEligible reports whether the outreach engine may act on a client
// currently in status s.
func IsOutreachEligible(s Status) bool {
	for _, v := range OutreachEligibleStatuses() {
		if v == s {
			return true
		}
	}
	return false
}

// Client mirrors the clients table columns the intake workflows touch.
type Client struct {
	ID                  string
	FullName            string
	Email               string
	Phone               *string
	Status              Status
	AssignedClinicianID *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Filters narrows client listings.
type Filters struct {
	Status    Status
	Search    string
	Page      int
	PageSize  int
	SortKey   string
	SortOrder string
}
