package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemClock_Now(t *testing.T) {
	before := time.Now()
	now := System.Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestSystemClock_SleepUntil_PastDeadline(t *testing.T) {
	start := time.Now()
	err := System.SleepUntil(context.Background(), start.Add(-time.Hour))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestSystemClock_SleepUntil_ZeroRemaining(t *testing.T) {
	err := System.SleepUntil(context.Background(), time.Now())
	assert.NoError(t, err)
}

func TestSystemClock_SleepUntil_FutureDeadline(t *testing.T) {
	start := time.Now()
	deadline := start.Add(30 * time.Millisecond)
	err := System.SleepUntil(context.Background(), deadline)
	require.NoError(t, err)
	assert.False(t, time.Now().Before(deadline))
}

func TestSystemClock_SleepUntil_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := System.SleepUntil(ctx, start.Add(10*time.Second))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDuration_Truncation(t *testing.T) {
	tests := []struct {
		name string
		sec  float64
		want time.Duration
	}{
		{"one second", 1.0, time.Second},
		{"half second", 0.5, 500 * time.Millisecond},
		{"negative", -0.25, -250 * time.Millisecond},
		{"sub-microsecond truncated", 0.0000005, 0},
		{"microsecond kept", 0.000001, time.Microsecond},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.sec))
		})
	}
}

func TestSeconds_RoundTrip(t *testing.T) {
	for _, d := range []time.Duration{time.Microsecond, time.Millisecond, time.Second, 90 * time.Minute} {
		assert.Equal(t, d, Duration(Seconds(d)))
	}
}

func TestAt(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(1500*time.Millisecond), At(base, 1.5))
	assert.Equal(t, base.Add(-2*time.Second), At(base, -2))
	assert.Equal(t, base, At(base, 0))
}
