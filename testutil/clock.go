package testutil

import (
	"context"
	"sync"
	"time"
)

// FakeClock is a virtual clock for deterministic pacing tests. SleepUntil
// never blocks: it advances the virtual time to the deadline (when the
// deadline is in the future) and records the request. Safe for concurrent
// use by pipeline goroutines.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Time
}

// NewFakeClock creates a fake clock starting at the given instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current virtual time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SleepUntil advances virtual time to the deadline and records it. Deadlines
// already in the virtual past leave the clock untouched, matching the
// no-op contract of the real clock.
func (c *FakeClock) SleepUntil(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, deadline)
	if deadline.After(c.now) {
		c.now = deadline
	}
	return nil
}

// Advance moves virtual time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sleeps returns every deadline passed to SleepUntil, in call order.
func (c *FakeClock) Sleeps() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Time(nil), c.sleeps...)
}
