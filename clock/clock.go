package clock

import (
	"context"
	"time"
)

// Clock provides wall-clock time and deadline sleeps. Implementations must
// treat deadlines at or before the current instant as an immediate no-op.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// SleepUntil blocks the calling goroutine until the given instant,
	// returning immediately if it is already past. Cancelling the context
	// aborts the sleep early and returns ctx.Err().
	SleepUntil(ctx context.Context, deadline time.Time) error
}

// System is the default Clock implementation backed by the time package.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) SleepUntil(ctx context.Context, deadline time.Time) error {
	remaining := deadline.Sub(time.Now()).Truncate(time.Microsecond)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Seconds converts a duration to floating-point seconds.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// Duration converts floating-point seconds to a duration, truncating below
// one microsecond. Values are signed; negative seconds produce negative
// durations.
func Duration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second)).Truncate(time.Microsecond)
}

// At resolves a signed offset in seconds against a base instant.
func At(base time.Time, offsetSec float64) time.Time {
	return base.Add(Duration(offsetSec))
}
