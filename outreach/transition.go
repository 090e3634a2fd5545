package outreach

import (
	"time"

	"intakeflow/client"
)

// Decision bundles the inputs the transition engine evaluates for the latest
// sent attempt of a client.
type Decision struct {
	Current          client.Status
	ResponseDetected bool
	SentAt           *time.Time
	WindowEnd        time.Time
	AttemptNumber    int
	TotalAttempts    int
}

// DecideNextStatus computes the client's next workflow status from the state
// of its most recent sent attempt. It returns false when no status write is
// needed, which keeps repeated invocations idempotent:
//
//   - a detected reply is handled by the orchestrator (in_communication), not
//     here;
//   - an unsent attempt yields no change;
//   - inside the response window yields no change;
//   - past the window, the next attempt's follow-up-due status is chosen, or
//     no_contact_ok_close once the plan is exhausted;
//   - a target equal to the current status yields no change.
func DecideNextStatus(now time.Time, d Decision) (client.Status, bool) {
	if d.ResponseDetected {
		return "", false
	}
	if d.SentAt == nil {
		return "", false
	}
	if IsWithinWindow(now, d.WindowEnd) {
		return "", false
	}

	var target client.Status
	if d.AttemptNumber < d.TotalAttempts {
		next, ok := client.FollowUpDueStatus(d.AttemptNumber + 1)
		if !ok {
			return "", false
		}
		target = next
	} else {
		target = client.StatusNoContactClose
	}

	if target == d.Current {
		return "", false
	}
	return target, true
}
