package pace

import (
	"context"
	"time"

	"github.com/c360/streampace/clock"
	"github.com/c360/streampace/stream"
)

// TimedEvent is implemented by element types that carry an absolute
// wall-clock deadline. Inputs to TimeCat and DropExpired are expected to
// present non-decreasing TimeOf values; the stages do not sort or buffer
// out-of-order input.
type TimedEvent interface {
	TimeOf() time.Time
}

// TMinus is implemented by element types that carry a signed offset in
// seconds relative to a start instant established once per stage activation.
type TMinus interface {
	TMinusSec() float64
}

// Option configures a pacing stage.
type Option func(*options)

type options struct {
	clk     clock.Clock
	metrics *Metrics
}

// WithClock replaces the system clock, primarily for deterministic tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clk = c }
}

// WithMetrics attaches Prometheus instrumentation to the stage.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(opts []Option) *options {
	o := &options{clk: clock.System}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// sleepUntil blocks until the deadline, recording the scheduled wait.
func (o *options) sleepUntil(ctx context.Context, stage string, deadline time.Time) error {
	o.metrics.recordSleep(stage, deadline.Sub(o.clk.Now()))
	return o.clk.SleepUntil(ctx, deadline)
}

// TimeCat emits each element no earlier than the deadline the element itself
// carries. Elements whose deadline has already passed are emitted
// immediately. The stage runs until upstream is exhausted.
func TimeCat[T TimedEvent](opts ...Option) stream.Stage[T, stream.Unit] {
	o := newOptions(opts)
	const name = "time_cat"

	return func(ctx context.Context, in stream.Receiver[T], out stream.Emitter[T]) (stream.Unit, error) {
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return stream.Unit{}, err
			}
			if err := o.sleepUntil(ctx, name, v.TimeOf()); err != nil {
				return stream.Unit{}, err
			}
			if err := out.Emit(ctx, v); err != nil {
				return stream.Unit{}, err
			}
			o.metrics.recordEmit(name)
		}
	}
}

// RelativeTimeCat captures t0 when the stage activates and emits each
// element no earlier than t0 plus the element's own offset. t0 is fixed once
// per activation, not per element.
func RelativeTimeCat[T TMinus](opts ...Option) stream.Stage[T, stream.Unit] {
	o := newOptions(opts)
	const name = "relative_time_cat"

	return func(ctx context.Context, in stream.Receiver[T], out stream.Emitter[T]) (stream.Unit, error) {
		t0 := o.clk.Now()
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return stream.Unit{}, err
			}
			if err := o.sleepUntil(ctx, name, clock.At(t0, v.TMinusSec())); err != nil {
				return stream.Unit{}, err
			}
			if err := out.Emit(ctx, v); err != nil {
				return stream.Unit{}, err
			}
			o.metrics.recordEmit(name)
		}
	}
}

// DropExpired discards elements whose deadline is already in the past, then
// returns once it receives an element that is still fresh. The fresh element
// is consumed, NOT emitted: exactly one element is lost at the handoff.
// Sequence with stream.Then to continue the remainder of the stream through
// another stage.
func DropExpired[T TimedEvent](opts ...Option) stream.Stage[T, stream.Unit] {
	o := newOptions(opts)
	const name = "drop_expired"

	return func(ctx context.Context, in stream.Receiver[T], _ stream.Emitter[T]) (stream.Unit, error) {
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return stream.Unit{}, err
			}
			if !o.clk.Now().After(v.TimeOf()) {
				return stream.Unit{}, nil
			}
			o.metrics.recordDrop(name)
		}
	}
}

// DropRelativeExpired is DropExpired for offset-carrying elements: discards
// while the element's offset is negative, then consumes the first
// non-negative element and returns without emitting it.
func DropRelativeExpired[T TMinus](opts ...Option) stream.Stage[T, stream.Unit] {
	o := newOptions(opts)
	const name = "drop_relative_expired"

	return func(ctx context.Context, in stream.Receiver[T], _ stream.Emitter[T]) (stream.Unit, error) {
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return stream.Unit{}, err
			}
			if v.TMinusSec() >= 0 {
				return stream.Unit{}, nil
			}
			o.metrics.recordDrop(name)
		}
	}
}
