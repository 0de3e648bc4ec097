package pace

import (
	"context"
	"time"

	"github.com/c360/streampace/clock"
	"github.com/c360/streampace/random"
	"github.com/c360/streampace/stream"
)

// batchSize is the number of Poisson deadlines precomputed per batch.
const batchSize = 100

// SteadyCat emits elements at a fixed rate (activations per second).
// Deadlines accumulate by addition from the activation instant, so
// scheduling error never compounds; the first emission occurs no earlier
// than one period after activation.
func SteadyCat[T any](rate float64, opts ...Option) stream.Stage[T, stream.Unit] {
	o := newOptions(opts)
	const name = "steady_cat"
	period := clock.Duration(1 / rate)

	return func(ctx context.Context, in stream.Receiver[T], out stream.Emitter[T]) (stream.Unit, error) {
		deadline := o.clk.Now()
		for {
			deadline = deadline.Add(period)
			if err := o.sleepUntil(ctx, name, deadline); err != nil {
				return stream.Unit{}, err
			}
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return stream.Unit{}, err
			}
			if err := out.Emit(ctx, v); err != nil {
				return stream.Unit{}, err
			}
			o.metrics.recordEmit(name)
		}
	}
}

// GenPoissonCat emits elements at the arrival times of a Poisson process
// with the given rate, driven by the supplied random source. Two activations
// with identically-seeded sources produce identical emission deadlines.
//
// Deadlines are precomputed one hundred at a time; each fresh batch
// accumulates from the last deadline of the previous batch rather than from
// the current clock reading, so the arrival process stays statistically
// continuous across batch boundaries.
func GenPoissonCat[T any](src random.Source, rate float64, opts ...Option) stream.Stage[T, stream.Unit] {
	o := newOptions(opts)
	const name = "gen_poisson_cat"

	return func(ctx context.Context, in stream.Receiver[T], out stream.Emitter[T]) (stream.Unit, error) {
		base := o.clk.Now()
		deadlines := make([]time.Time, 0, batchSize)
		next := 0

		for {
			if next == len(deadlines) {
				deadlines = appendBatch(deadlines[:0], base, src, rate)
				base = deadlines[len(deadlines)-1]
				next = 0
			}
			if err := o.sleepUntil(ctx, name, deadlines[next]); err != nil {
				return stream.Unit{}, err
			}
			next++

			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return stream.Unit{}, err
			}
			if err := out.Emit(ctx, v); err != nil {
				return stream.Unit{}, err
			}
			o.metrics.recordEmit(name)
		}
	}
}

// appendBatch accumulates batchSize exponential inter-arrival delays onto
// base and appends the resulting absolute deadlines.
func appendBatch(deadlines []time.Time, base time.Time, src random.Source, rate float64) []time.Time {
	t := base
	for i := 0; i < batchSize; i++ {
		t = t.Add(random.ExpDelay(src.Float64(), rate))
		deadlines = append(deadlines, t)
	}
	return deadlines
}

// PoissonCat is GenPoissonCat seeded from the ambient nondeterministic
// random source at activation time.
func PoissonCat[T any](rate float64, opts ...Option) stream.Stage[T, stream.Unit] {
	return GenPoissonCat[T](random.New(), rate, opts...)
}

// CatAtTimes gates elements against an explicit schedule of absolute
// deadlines, consumed one-for-one: sleep until the next deadline, receive
// one element, emit it. Once the schedule is exhausted the stage becomes an
// unconditional passthrough for the remainder of the stream.
func CatAtTimes[T any](schedule []time.Time, opts ...Option) stream.Stage[T, stream.Unit] {
	o := newOptions(opts)
	const name = "cat_at_times"

	return func(ctx context.Context, in stream.Receiver[T], out stream.Emitter[T]) (stream.Unit, error) {
		for _, deadline := range schedule {
			if err := o.sleepUntil(ctx, name, deadline); err != nil {
				return stream.Unit{}, err
			}
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return stream.Unit{}, err
			}
			if err := out.Emit(ctx, v); err != nil {
				return stream.Unit{}, err
			}
			o.metrics.recordEmit(name)
		}
		return stream.Passthrough[T]()(ctx, in, out)
	}
}

// CatAtRelativeTimes is CatAtTimes with the schedule given as offsets in
// seconds from the activation instant. An empty offset list behaves as an
// immediate unconditional passthrough.
func CatAtRelativeTimes[T any](offsets []float64, opts ...Option) stream.Stage[T, stream.Unit] {
	o := newOptions(opts)

	return func(ctx context.Context, in stream.Receiver[T], out stream.Emitter[T]) (stream.Unit, error) {
		if len(offsets) == 0 {
			return stream.Passthrough[T]()(ctx, in, out)
		}

		t0 := o.clk.Now()
		schedule := make([]time.Time, len(offsets))
		for i, off := range offsets {
			schedule[i] = clock.At(t0, off)
		}
		return CatAtTimes[T](schedule, opts...)(ctx, in, out)
	}
}
