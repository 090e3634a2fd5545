package outreach

import (
	"fmt"
	"time"
)

// IntervalUnit selects how response-window days are counted.
type IntervalUnit string

const (
	// BusinessDays counts Monday through Friday only.
	BusinessDays IntervalUnit = "business_days"
	// CalendarDays counts every day.
	CalendarDays IntervalUnit = "calendar_days"
)

// Interval is a configuration-driven response window length.
type Interval struct {
	Days int
	Unit IntervalUnit
}

// DefaultInterval is three business days, the stock follow-up cadence.
func DefaultInterval() Interval {
	return Interval{Days: 3, Unit: BusinessDays}
}

func (iv Interval) String() string {
	return fmt.Sprintf("%d %s", iv.Days, iv.Unit)
}

// ComputeWindowEnd returns the deadline by which a reply to a message sent at
// sentAt must arrive before escalation is due. Business-day intervals skip
// Saturdays and Sundays; the time of day is preserved from sentAt.
func ComputeWindowEnd(sentAt time.Time, iv Interval) time.Time {
	days := iv.Days
	if days <= 0 {
		return sentAt
	}
	if iv.Unit != BusinessDays {
		return sentAt.AddDate(0, 0, days)
	}
	end := sentAt
	for remaining := days; remaining > 0; {
		end = end.AddDate(0, 0, 1)
		if wd := end.Weekday(); wd != time.Saturday && wd != time.Sunday {
			remaining--
		}
	}
	return end
}

// IsWithinWindow reports whether now is still inside the response window.
// The boundary is closed on the elapsed side: now == windowEnd means the
// window has elapsed.
func IsWithinWindow(now, windowEnd time.Time) bool {
	return now.Before(windowEnd)
}
