package stream

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pipe is a channel-backed connector implementing both stream endpoints.
// One goroutine emits, another receives; Close signals end of stream.
type Pipe[T any] struct {
	ch        chan T
	closeOnce sync.Once
}

// NewPipe creates a pipe with the given buffer size. A buffer of zero gives
// fully synchronous handoff between neighbouring stages.
func NewPipe[T any](buffer int) *Pipe[T] {
	return &Pipe[T]{ch: make(chan T, buffer)}
}

// Recv returns the next element, or ok=false once the pipe is closed and
// drained.
func (p *Pipe[T]) Recv(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case v, ok := <-p.ch:
		if !ok {
			return zero, false, nil
		}
		return v, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// Emit sends an element into the pipe.
func (p *Pipe[T]) Emit(ctx context.Context, v T) error {
	select {
	case p.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks end of stream. Safe to call more than once.
func (p *Pipe[T]) Close() {
	p.closeOnce.Do(func() { close(p.ch) })
}

// Run chains the given stages between a source and a sink, placing each
// stage on its own goroutine with a synchronous pipe between neighbours.
// When a stage returns, its output pipe is closed so downstream observes end
// of stream, and its upstream neighbour is released via context cancellation
// so a stage that terminates mid-stream (DropExpired does) cannot strand the
// producers above it. Run blocks until every stage has returned and reports
// the first stage error encountered.
func Run[T any](ctx context.Context, src Receiver[T], sink Emitter[T], stages ...Stage[T, Unit]) error {
	if len(stages) == 0 {
		stages = []Stage[T, Unit]{Passthrough[T]()}
	}
	n := len(stages)

	g, rootCtx := errgroup.WithContext(ctx)

	// stageCtx[i] is cancelled by stage i's downstream neighbour when that
	// neighbour returns, unblocking any in-flight Emit.
	stageCtx := make([]context.Context, n)
	release := make([]context.CancelFunc, n)
	for i := range stageCtx {
		stageCtx[i], release[i] = context.WithCancel(rootCtx)
	}

	in := src
	for i := 0; i < n; i++ {
		stage := stages[i]
		stageIn := in
		out := NewPipe[T](0)
		myCtx := stageCtx[i]
		var releaseUpstream context.CancelFunc
		if i > 0 {
			releaseUpstream = release[i-1]
		}

		g.Go(func() error {
			defer out.Close()
			if releaseUpstream != nil {
				defer releaseUpstream()
			}
			_, err := stage(myCtx, stageIn, out)
			return cleanShutdown(err, ctx, rootCtx)
		})
		in = out
	}

	// Drain the last pipe into the sink.
	last := in
	releaseUpstream := release[n-1]
	g.Go(func() error {
		defer releaseUpstream()
		for {
			v, ok, err := last.Recv(rootCtx)
			if err != nil || !ok {
				return cleanShutdown(err, ctx, rootCtx)
			}
			if err := sink.Emit(rootCtx, v); err != nil {
				return cleanShutdown(err, ctx, rootCtx)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// cleanShutdown filters out the cancellation used to release an upstream
// stage after its downstream returned. Cancellation originating from the
// caller's context or from another stage's failure is kept.
func cleanShutdown(err error, callerCtx, rootCtx context.Context) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) && callerCtx.Err() == nil && rootCtx.Err() == nil {
		return nil
	}
	return err
}
