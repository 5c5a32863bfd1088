package quota

import (
	"context"

	"github.com/promptwizard-app/promptwizard/internal/timeday"
)

// Meter is the free-tier daily usage counter: a fixed number of actions per
// identity per local calendar day.
type Meter struct {
	store UsageStore
	clock *timeday.Clock
	limit int
}

// NewMeter creates a Meter with the configured daily limit.
func NewMeter(store UsageStore, clock *timeday.Clock, limit int) *Meter {
	return &Meter{store: store, clock: clock, limit: limit}
}

// AuthorizeAndRecord permits one action and counts it. False means the daily
// limit is reached and nothing was recorded. A limit of zero denies
// everything without touching the store.
func (m *Meter) AuthorizeAndRecord(ctx context.Context, identity string) (bool, error) {
	if m.limit <= 0 {
		return false, nil
	}
	_, ok, err := m.store.IncrementIfUnder(ctx, identity, m.clock.TodayKey(), m.limit)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Status reads today's usage without recording anything.
func (m *Meter) Status(ctx context.Context, identity string) (*UsageStatus, error) {
	count, err := m.store.Count(ctx, identity, m.clock.TodayKey())
	if err != nil {
		return nil, err
	}
	return &UsageStatus{
		Count:     count,
		Limit:     m.limit,
		Remaining: max(m.limit-count, 0),
		ResetAt:   m.clock.NextResetAt(),
	}, nil
}
