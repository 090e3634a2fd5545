package settings

import (
	"context"
	"testing"

	"intakeflow/outreach"
)

func TestLoadOutreachConfig_Defaults(t *testing.T) {
	cfg, err := LoadOutreachConfig(context.Background(), Static{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TotalAttempts != outreach.DefaultTotalAttempts {
		t.Fatalf("expected default total %d, got %d", outreach.DefaultTotalAttempts, cfg.TotalAttempts)
	}
	for stage := 1; stage <= cfg.TotalAttempts; stage++ {
		iv, ok := cfg.Intervals[stage]
		if !ok {
			t.Fatalf("missing interval for stage %d", stage)
		}
		if iv != outreach.DefaultInterval() {
			t.Fatalf("stage %d: expected default interval, got %+v", stage, iv)
		}
	}
}

func TestLoadOutreachConfig_PerStageOverrides(t *testing.T) {
	provider := Static{
		Total: 2,
		Intervals: map[int]outreach.Interval{
			2: {Days: 7, Unit: outreach.CalendarDays},
		},
	}

	cfg, err := LoadOutreachConfig(context.Background(), provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TotalAttempts != 2 {
		t.Fatalf("expected total 2, got %d", cfg.TotalAttempts)
	}
	if cfg.Intervals[1] != outreach.DefaultInterval() {
		t.Fatalf("stage 1 should fall back to default, got %+v", cfg.Intervals[1])
	}
	if cfg.Intervals[2].Days != 7 || cfg.Intervals[2].Unit != outreach.CalendarDays {
		t.Fatalf("stage 2 override not applied: %+v", cfg.Intervals[2])
	}
}

func TestLoadOutreachConfig_RejectsOutOfRangeTotal(t *testing.T) {
	if _, err := LoadOutreachConfig(context.Background(), Static{Total: outreach.MaxTotalAttempts + 1}); err == nil {
		t.Fatal("expected error for total above the supported maximum")
	}
}
