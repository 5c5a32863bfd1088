// Package timeday provides calendar-day arithmetic in a configured timezone.
// Quota resets are keyed on local calendar dates, not 24-hour windows, so all
// day boundaries are computed against a single fixed location.
package timeday

import (
	"fmt"
	"log/slog"
	"time"
)

// DayKeyLayout is the calendar-date form used to key daily records.
const DayKeyLayout = "2006-01-02"

// fallbackOffset is UTC+8 (Asia/Manila, no DST), used when the configured
// zone name cannot be resolved on the host.
const fallbackOffset = 8 * 60 * 60

// Clock resolves "now" into day keys and reset instants for one timezone.
type Clock struct {
	loc   *time.Location
	zone  string
	nowFn func() time.Time
}

// NewClock builds a Clock for the named timezone. An unresolvable name is
// not an error: the clock falls back to a fixed UTC+8 offset and logs a
// warning.
func NewClock(zone string) *Clock {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		slog.Warn("timezone not found, falling back to fixed UTC+8", "zone", zone, "error", err)
		loc = time.FixedZone("UTC+8", fallbackOffset)
	}
	return &Clock{loc: loc, zone: zone, nowFn: time.Now}
}

// NewClockAt returns a Clock whose current instant comes from now instead
// of the wall clock; tests use it to pin day boundaries.
func NewClockAt(zone string, now func() time.Time) *Clock {
	c := NewClock(zone)
	c.nowFn = now
	return c
}

// Zone returns the configured zone name, even when the fixed fallback is in use.
func (c *Clock) Zone() string { return c.zone }

// Now returns the current instant in the clock's location.
func (c *Clock) Now() time.Time {
	return c.nowFn().In(c.loc)
}

// TodayKey returns the current local calendar date as YYYY-MM-DD.
func (c *Clock) TodayKey() string {
	return c.Now().Format(DayKeyLayout)
}

// NextResetAt returns the next local midnight as an absolute instant.
func (c *Clock) NextResetAt() time.Time {
	now := c.Now()
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, c.loc)
}

// DaysBetween returns the number of calendar days from one day key to
// another (to - from). Malformed keys are an error.
func DaysBetween(from, to string) (int, error) {
	t1, err := time.ParseInLocation(DayKeyLayout, from, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parsing day key %q: %w", from, err)
	}
	t2, err := time.ParseInLocation(DayKeyLayout, to, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parsing day key %q: %w", to, err)
	}
	return int(t2.Sub(t1).Hours() / 24), nil
}
