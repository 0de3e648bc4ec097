package testutil

import (
	"context"
	"sync"
	"time"
)

// SliceReceiver yields the elements of a slice in order, then signals end of
// stream.
type SliceReceiver[T any] struct {
	mu    sync.Mutex
	items []T
	pos   int
}

// NewSliceReceiver creates a receiver over the given elements.
func NewSliceReceiver[T any](items ...T) *SliceReceiver[T] {
	return &SliceReceiver[T]{items: items}
}

// Recv returns the next element, or ok=false when the slice is exhausted.
func (s *SliceReceiver[T]) Recv(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.items) {
		return zero, false, nil
	}
	v := s.items[s.pos]
	s.pos++
	return v, true, nil
}

// Remaining reports how many elements have not been consumed yet.
func (s *SliceReceiver[T]) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) - s.pos
}

// CollectEmitter records every emitted element and, when built with a clock,
// the virtual time of each emission.
type CollectEmitter[T any] struct {
	mu    sync.Mutex
	now   func() time.Time
	items []T
	times []time.Time
}

// NewCollectEmitter creates an emitter that records elements only.
func NewCollectEmitter[T any]() *CollectEmitter[T] {
	return &CollectEmitter[T]{}
}

// NewTimedCollectEmitter creates an emitter that also stamps each emission
// with the given clock function.
func NewTimedCollectEmitter[T any](now func() time.Time) *CollectEmitter[T] {
	return &CollectEmitter[T]{now: now}
}

// Emit records the element.
func (c *CollectEmitter[T]) Emit(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, v)
	if c.now != nil {
		c.times = append(c.times, c.now())
	}
	return nil
}

// Items returns the recorded elements in emission order.
func (c *CollectEmitter[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Times returns the recorded emission instants. Empty unless the emitter was
// built with NewTimedCollectEmitter.
func (c *CollectEmitter[T]) Times() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Time(nil), c.times...)
}

// FixedSource is a random source that replays a fixed sequence of uniform
// values, wrapping around when exhausted.
type FixedSource struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

// NewFixedSource creates a source over the given values. Panics when called
// with no values.
func NewFixedSource(values ...float64) *FixedSource {
	if len(values) == 0 {
		panic("testutil: FixedSource needs at least one value")
	}
	return &FixedSource{values: values}
}

// Float64 returns the next value in the sequence.
func (f *FixedSource) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.values[f.pos%len(f.values)]
	f.pos++
	return v
}
