// Package settings supplies the outreach engine's configuration values. The
// engine never reads them ambiently; callers load a config value object here
// and inject it.
package settings

import (
	"context"
	"fmt"

	"intakeflow/outreach"
)

// Provider exposes the tunable outreach settings.
type Provider interface {
	// TotalOutreachAttempts is the per-client plan size (default 3).
	TotalOutreachAttempts(ctx context.Context) (int, error)
	// FollowUpInterval is the response window granted to attempt stage n.
	FollowUpInterval(ctx context.Context, stage int) (outreach.Interval, error)
}

// LoadOutreachConfig assembles the explicit config object the engine is
// constructed with.
func LoadOutreachConfig(ctx context.Context, p Provider) (outreach.Config, error) {
	total, err := p.TotalOutreachAttempts(ctx)
	if err != nil {
		return outreach.Config{}, fmt.Errorf("settings: total attempts: %w", err)
	}
	if total < 1 || total > outreach.MaxTotalAttempts {
		return outreach.Config{}, fmt.Errorf("settings: total attempts %d out of range [1,%d]", total, outreach.MaxTotalAttempts)
	}

	intervals := make(map[int]outreach.Interval, total)
	for stage := 1; stage <= total; stage++ {
		iv, err := p.FollowUpInterval(ctx, stage)
		if err != nil {
			return outreach.Config{}, fmt.Errorf("settings: interval for stage %d: %w", stage, err)
		}
		intervals[stage] = iv
	}
	return outreach.Config{TotalAttempts: total, Intervals: intervals}, nil
}

// Static is a fixed-value provider for tests and single-tenant deployments.
type Static struct {
	Total     int
	Intervals map[int]outreach.Interval
}

func (s Static) TotalOutreachAttempts(ctx context.Context) (int, error) {
	if s.Total == 0 {
		return outreach.DefaultTotalAttempts, nil
	}
	return s.Total, nil
}

func (s Static) FollowUpInterval(ctx context.Context, stage int) (outreach.Interval, error) {
	if iv, ok := s.Intervals[stage]; ok {
		return iv, nil
	}
	return outreach.DefaultInterval(), nil
}
