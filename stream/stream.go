package stream

import (
	"context"
)

// Receiver yields elements from upstream. Recv blocks until an element is
// available, the stream ends (ok=false), or the context is cancelled.
type Receiver[T any] interface {
	Recv(ctx context.Context) (v T, ok bool, err error)
}

// Emitter forwards elements downstream. Emit blocks until the element is
// accepted or the context is cancelled.
type Emitter[T any] interface {
	Emit(ctx context.Context, v T) error
}

// Unit is the empty completion value used by stages that produce no result.
type Unit = struct{}

// Stage is a pull-based filter over a stream of T completing with a value of
// type R. A stage returns when upstream is exhausted, when its own contract
// says it is done, or when an endpoint reports an error.
type Stage[T, R any] func(ctx context.Context, in Receiver[T], out Emitter[T]) (R, error)

// DropResult erases a stage's completion value, allowing stages with
// heterogeneous result types to be sequenced uniformly.
func DropResult[T, R any](s Stage[T, R]) Stage[T, Unit] {
	return func(ctx context.Context, in Receiver[T], out Emitter[T]) (Unit, error) {
		_, err := s(ctx, in, out)
		return Unit{}, err
	}
}

// Then sequences two stages over the same endpoints: first runs until it
// returns, then second takes over the remainder of the stream. The first
// stage's completion value is discarded.
func Then[T, R1, R2 any](first Stage[T, R1], second Stage[T, R2]) Stage[T, R2] {
	return func(ctx context.Context, in Receiver[T], out Emitter[T]) (R2, error) {
		if _, err := first(ctx, in, out); err != nil {
			var zero R2
			return zero, err
		}
		return second(ctx, in, out)
	}
}

// Passthrough forwards every element unchanged until upstream is exhausted.
func Passthrough[T any]() Stage[T, Unit] {
	return func(ctx context.Context, in Receiver[T], out Emitter[T]) (Unit, error) {
		for {
			v, ok, err := in.Recv(ctx)
			if err != nil || !ok {
				return Unit{}, err
			}
			if err := out.Emit(ctx, v); err != nil {
				return Unit{}, err
			}
		}
	}
}
