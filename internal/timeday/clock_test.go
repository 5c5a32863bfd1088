package timeday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T, zone string, at time.Time) *Clock {
	t.Helper()
	c := NewClock(zone)
	c.nowFn = func() time.Time { return at }
	return c
}

func TestNewClock_FallsBackToFixedOffset(t *testing.T) {
	c := NewClock("Not/AZone")

	// Fallback has a fixed +8h offset and no DST.
	_, offset := c.Now().Zone()
	assert.Equal(t, 8*60*60, offset)
	assert.Equal(t, "Not/AZone", c.Zone())
}

func TestTodayKey(t *testing.T) {
	// 2024-03-01 23:30 UTC is already 2024-03-02 in UTC+8.
	at := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	c := fixedClock(t, "Not/AZone", at)

	assert.Equal(t, "2024-03-02", c.TodayKey())
}

func TestNextResetAt_Deterministic(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := fixedClock(t, "Not/AZone", at)

	first := c.NextResetAt()
	second := c.NextResetAt()
	assert.True(t, first.Equal(second))
}

func TestNextResetAt_MidnightBoundary(t *testing.T) {
	// Local midnight in UTC+8 is 16:00 UTC of the previous day.
	justBefore := time.Date(2024, 3, 1, 15, 59, 59, 0, time.UTC)
	justAfter := time.Date(2024, 3, 1, 16, 0, 1, 0, time.UTC)

	before := fixedClock(t, "Not/AZone", justBefore).NextResetAt()
	after := fixedClock(t, "Not/AZone", justAfter).NextResetAt()

	// The fallback zone has no DST, so the two reset instants are exactly 24h apart.
	assert.Equal(t, 24*time.Hour, after.Sub(before))
}

func TestNextResetAt_IsLocalMidnight(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := fixedClock(t, "Not/AZone", at)

	reset := c.NextResetAt()
	assert.Equal(t, 0, reset.Hour())
	assert.Equal(t, 0, reset.Minute())
	assert.Equal(t, 0, reset.Second())
	assert.True(t, reset.After(c.Now()))
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"2024-03-01", "2024-03-01", 0},
		{"2024-03-01", "2024-03-02", 1},
		{"2024-03-01", "2024-03-04", 3},
		{"2024-02-28", "2024-03-01", 2}, // leap year
		{"2024-03-02", "2024-03-01", -1},
	}
	for _, tt := range tests {
		got, err := DaysBetween(tt.from, tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestDaysBetween_MalformedKey(t *testing.T) {
	_, err := DaysBetween("03/01/2024", "2024-03-02")
	require.Error(t, err)
}
