package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"intakeflow/outreach"
)

// PGProvider reads settings from the key/value settings table, falling back
// to the documented defaults when a key is absent.
type PGProvider struct {
	pool *pgxpool.Pool
}

func NewPGProvider(pool *pgxpool.Pool) *PGProvider {
	return &PGProvider{pool: pool}
}

const (
	keyTotalAttempts  = "totalOutreachAttempts"
	keyIntervalPrefix = "followUpIntervalDays."
	keyIntervalUnit   = "followUpIntervalUnit"
)

func (p *PGProvider) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("settings: get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *PGProvider) TotalOutreachAttempts(ctx context.Context) (int, error) {
	raw, ok, err := p.get(ctx, keyTotalAttempts)
	if err != nil {
		return 0, err
	}
	if !ok {
		return outreach.DefaultTotalAttempts, nil
	}
	total, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("settings: parse %s=%q: %w", keyTotalAttempts, raw, err)
	}
	return total, nil
}

func (p *PGProvider) FollowUpInterval(ctx context.Context, stage int) (outreach.Interval, error) {
	iv := outreach.DefaultInterval()

	if raw, ok, err := p.get(ctx, keyIntervalUnit); err != nil {
		return outreach.Interval{}, err
	} else if ok {
		switch outreach.IntervalUnit(raw) {
		case outreach.BusinessDays, outreach.CalendarDays:
			iv.Unit = outreach.IntervalUnit(raw)
		default:
			return outreach.Interval{}, fmt.Errorf("settings: unknown interval unit %q", raw)
		}
	}

	raw, ok, err := p.get(ctx, keyIntervalPrefix+strconv.Itoa(stage))
	if err != nil {
		return outreach.Interval{}, err
	}
	if ok {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			return outreach.Interval{}, fmt.Errorf("settings: invalid interval days %q for stage %d", raw, stage)
		}
		iv.Days = days
	}
	return iv, nil
}
