package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestClassifyStatus(t *testing.T) {
	now := time.Date(2025, time.March, 10, 0, 1, 0, 0, time.Local)

	tests := []struct {
		name      string
		eventDate time.Time
		eventTime string
		want      EventStatus
	}{
		{"today late evening is ongoing", date(2025, time.March, 10), "23:59", StatusOngoing},
		{"today earlier same day is ongoing", date(2025, time.March, 10), "00:00", StatusOngoing},
		{"tomorrow is upcoming", date(2025, time.March, 11), "09:00", StatusUpcoming},
		{"yesterday is completed", date(2025, time.March, 9), "18:00", StatusCompleted},
		{"far future is upcoming", date(2025, time.June, 1), "12:00", StatusUpcoming},
		{"missing time defaults to midnight", date(2025, time.March, 9), "", StatusCompleted},
		{"malformed time defaults to midnight", date(2025, time.March, 11), "soon", StatusUpcoming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.eventDate, tt.eventTime, now))
		})
	}
}

func TestCombineDateTime(t *testing.T) {
	d := date(2025, time.March, 10)

	at := CombineDateTime(d, "18:30", time.Local)
	assert.Equal(t, 18, at.Hour())
	assert.Equal(t, 30, at.Minute())

	at = CombineDateTime(d, "not a time", time.Local)
	assert.Equal(t, 0, at.Hour())
	assert.Equal(t, 0, at.Minute())
}

func TestComputeAvailability(t *testing.T) {
	avail, err := ComputeAvailability(10, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, avail.RegisteredCount)
	assert.InDelta(t, 90.0, avail.PercentFull, 0.001)
	assert.Equal(t, BandCritical, avail.Band())

	avail, err = ComputeAvailability(10, 3)
	require.NoError(t, err)
	assert.Equal(t, BandWarning, avail.Band())

	avail, err = ComputeAvailability(10, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, avail.RegisteredCount)
	assert.Zero(t, avail.PercentFull)
	assert.Equal(t, BandNormal, avail.Band())
}

func TestComputeAvailabilityClampsAnomalies(t *testing.T) {
	// Remaining above capacity: registered clamps to zero.
	avail, err := ComputeAvailability(10, 15)
	require.NoError(t, err)
	assert.Equal(t, 0, avail.RegisteredCount)

	// Negative remaining: registered clamps to capacity.
	avail, err = ComputeAvailability(10, -2)
	require.NoError(t, err)
	assert.Equal(t, 10, avail.RegisteredCount)
	assert.InDelta(t, 100.0, avail.PercentFull, 0.001)
}

func TestComputeAvailabilityRejectsBadCapacity(t *testing.T) {
	_, err := ComputeAvailability(0, 0)
	assert.Error(t, err)
	_, err = ComputeAvailability(-5, 0)
	assert.Error(t, err)
}

func TestAvailabilityPercentBounds(t *testing.T) {
	for capacity := 1; capacity <= 20; capacity++ {
		for remaining := 0; remaining <= capacity; remaining++ {
			avail, err := ComputeAvailability(capacity, remaining)
			require.NoError(t, err)
			assert.Equal(t, capacity-remaining, avail.RegisteredCount)
			assert.GreaterOrEqual(t, avail.PercentFull, 0.0)
			assert.LessOrEqual(t, avail.PercentFull, 100.0)
		}
	}
}

func TestRegistrationOpen(t *testing.T) {
	now := time.Date(2025, time.March, 10, 10, 0, 0, 0, time.Local)

	assert.False(t, RegistrationOpen(date(2025, time.March, 10), now), "midnight cutoff of today has passed by mid-morning")
	assert.True(t, RegistrationOpen(date(2025, time.March, 11), now), "future cutoff is open")
	assert.False(t, RegistrationOpen(date(2025, time.March, 9), now), "past cutoff is closed")
	assert.True(t, RegistrationOpen(now, now), "cutoff exactly now is still open")
}
