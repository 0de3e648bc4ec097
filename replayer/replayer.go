package replayer

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/streampace/clock"
	"github.com/c360/streampace/component"
	"github.com/c360/streampace/errors"
	"github.com/c360/streampace/event"
	"github.com/c360/streampace/metric"
	"github.com/c360/streampace/pace"
	"github.com/c360/streampace/random"
	"github.com/c360/streampace/stream"
)

// Mode selects the pacing stage driving a replay session
type Mode string

// Supported pacing modes
const (
	ModeTimeCat  Mode = "timecat"
	ModeRelative Mode = "relative"
	ModeSteady   Mode = "steady"
	ModePoisson  Mode = "poisson"
	ModeSchedule Mode = "schedule"
)

// Config holds configuration for a replay session
type Config struct {
	// Mode selects the pacing stage.
	Mode Mode `json:"mode"`

	// Rate is activations per second for steady and poisson modes.
	Rate float64 `json:"rate,omitempty"`

	// Seed makes poisson mode deterministic when set.
	Seed *uint64 `json:"seed,omitempty"`

	// Offsets is the schedule for schedule mode, seconds from session start.
	Offsets []float64 `json:"offsets,omitempty"`

	// Rebase rewrites each event's time to session start plus its recorded
	// offset before pacing, so recordings from the past replay live.
	Rebase bool `json:"rebase,omitempty"`

	// SkipExpired discards events whose deadline has already passed before
	// normal pacing takes over. Only meaningful for timecat and relative
	// modes. The handoff consumes one fresh event without emitting it.
	SkipExpired bool `json:"skip_expired,omitempty"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeTimeCat, ModeRelative:
	case ModeSteady, ModePoisson:
		if c.Rate <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("mode %s requires a positive rate", c.Mode))
		}
	case ModeSchedule:
		if len(c.Offsets) == 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"schedule mode requires offsets")
		}
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown mode %q", c.Mode))
	}

	if c.SkipExpired && c.Mode != ModeTimeCat && c.Mode != ModeRelative {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("skip_expired is not meaningful for mode %s", c.Mode))
	}
	return nil
}

// DefaultConfig returns the default replay configuration
func DefaultConfig() Config {
	return Config{
		Mode:   ModeRelative,
		Rebase: false,
	}
}

// Source is a recorded-event producer with a managed lifecycle.
type Source interface {
	component.LifecycleComponent
	stream.Receiver[*event.Event]
}

// Sink is a paced-event consumer with a managed lifecycle.
type Sink interface {
	component.LifecycleComponent
	stream.Emitter[*event.Event]
}

// Option configures a Replayer beyond its JSON config
type Option func(*Replayer)

// WithClock replaces the pacing clock, primarily for deterministic tests
func WithClock(c clock.Clock) Option {
	return func(r *Replayer) { r.clk = c }
}

// Replayer drives one replay session: source through pacing stage to sinks.
type Replayer struct {
	name      string
	config    Config
	sessionID string
	source    Source
	sinks     []Sink
	logger    *slog.Logger
	clk       clock.Clock

	coreMetrics *metric.Metrics
	paceMetrics *pace.Metrics
	registry    *metric.MetricsRegistry

	state     component.State
	startTime time.Time
	runErr    error
	done      chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
}

var _ component.LifecycleComponent = (*Replayer)(nil)

// NewReplayer creates a replay session over the given source and sinks
func NewReplayer(rawConfig json.RawMessage, source Source, sinks []Sink,
	deps component.Dependencies, opts ...Option) (*Replayer, error) {

	config := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return nil, errors.WrapInvalid(err, "Replayer", "NewReplayer", "config unmarshal")
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Replayer", "NewReplayer",
			"source is required")
	}
	if len(sinks) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Replayer", "NewReplayer",
			"at least one sink is required")
	}

	sessionID := uuid.New().String()

	r := &Replayer{
		name:      "replayer",
		config:    config,
		sessionID: sessionID,
		source:    source,
		sinks:     sinks,
		logger:    deps.GetLoggerWithComponent("replayer").With("session_id", sessionID),
		clk:       clock.System,
		registry:  deps.MetricsRegistry,
		state:     component.StateCreated,
	}
	if deps.MetricsRegistry != nil {
		r.coreMetrics = deps.MetricsRegistry.CoreMetrics()
	}

	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// SessionID returns the unique identifier for this replay session
func (r *Replayer) SessionID() string {
	return r.sessionID
}

// Initialize prepares the source, the sinks, and the pacing instrumentation
func (r *Replayer) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != component.StateCreated {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Replayer", "Initialize",
			fmt.Sprintf("unexpected state %s", r.state))
	}

	paceMetrics, err := pace.NewMetrics(r.registry)
	if err != nil {
		return errors.WrapFatal(err, "Replayer", "Initialize", "register pacing metrics")
	}
	r.paceMetrics = paceMetrics

	if err := r.source.Initialize(); err != nil {
		return errors.Wrap(err, "Replayer", "Initialize",
			fmt.Sprintf("initialize source %s", r.source.Meta().Name))
	}
	for _, sink := range r.sinks {
		if err := sink.Initialize(); err != nil {
			return errors.Wrap(err, "Replayer", "Initialize",
				fmt.Sprintf("initialize sink %s", sink.Meta().Name))
		}
	}

	r.state = component.StateInitialized
	r.logger.Debug("Replayer initialized", "mode", r.config.Mode, "sinks", len(r.sinks))
	return nil
}

// Start launches the replay pipeline. The pipeline runs until the recording
// is exhausted, a sink fails, or Stop cancels it; Wait or Done observe
// completion.
func (r *Replayer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == component.StateStarted {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Replayer", "Start", "check running state")
	}
	if r.state != component.StateInitialized {
		return errors.WrapFatal(errors.ErrNotStarted, "Replayer", "Start",
			fmt.Sprintf("unexpected state %s", r.state))
	}

	if err := r.source.Start(ctx); err != nil {
		return errors.Wrap(err, "Replayer", "Start",
			fmt.Sprintf("start source %s", r.source.Meta().Name))
	}
	for _, sink := range r.sinks {
		if err := sink.Start(ctx); err != nil {
			return errors.Wrap(err, "Replayer", "Start",
				fmt.Sprintf("start sink %s", sink.Meta().Name))
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.state = component.StateStarted
	r.startTime = r.clk.Now()
	r.setStatusMetric(2)

	stage := r.buildStage()
	src := r.wrapSource()
	sink := &fanout{sinks: r.sinks}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(r.done)

		r.logger.Info("Replay started", "mode", r.config.Mode)
		err := stream.Run(runCtx, src, sink, stage)

		r.mu.Lock()
		// Stop moves the state off StateStarted before cancelling, so a
		// cancellation observed here is a requested shutdown, not a failure.
		if err != nil && r.state != component.StateStarted && stderrors.Is(err, context.Canceled) {
			err = nil
		}
		r.runErr = err
		if r.state == component.StateStarted {
			if err != nil {
				r.state = component.StateFailed
				r.setStatusMetric(4)
			} else {
				r.state = component.StateStopped
				r.setStatusMetric(0)
			}
		}
		r.mu.Unlock()

		if err != nil {
			r.logger.Error("Replay failed", "error", err)
			if r.coreMetrics != nil {
				r.coreMetrics.ErrorsTotal.WithLabelValues(r.name, "pipeline").Inc()
			}
		} else {
			r.logger.Info("Replay finished", "received", src.received)
		}
	}()

	return nil
}

// Stop cancels the pipeline and stops all components
func (r *Replayer) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.cancel = nil
	done := r.done
	r.state = component.StateStopped
	r.setStatusMetric(0)
	r.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-time.After(timeout):
		return errors.WrapTransient(errors.ErrShutdownTimeout, "Replayer", "Stop",
			"pipeline did not drain in time")
	}

	var firstErr error
	if err := r.source.Stop(timeout); err != nil && firstErr == nil {
		firstErr = err
	}
	for _, sink := range r.sinks {
		if err := sink.Stop(timeout); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	r.logger.Info("Replay stopped")
	return firstErr
}

// Wait blocks until the pipeline completes and returns its error, if any.
// Cancellation via Stop is a clean completion, not an error.
func (r *Replayer) Wait() error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return errors.WrapFatal(errors.ErrNotStarted, "Replayer", "Wait", "replay not started")
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runErr
}

// Done returns a channel closed when the pipeline completes
func (r *Replayer) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// buildStage assembles the pacing stage chain for the configured mode.
func (r *Replayer) buildStage() stream.Stage[*event.Event, stream.Unit] {
	opts := []pace.Option{pace.WithClock(r.clk), pace.WithMetrics(r.paceMetrics)}

	var base stream.Stage[*event.Event, stream.Unit]
	switch r.config.Mode {
	case ModeTimeCat:
		base = pace.TimeCat[*event.Event](opts...)
	case ModeRelative:
		base = pace.RelativeTimeCat[*event.Event](opts...)
	case ModeSteady:
		base = pace.SteadyCat[*event.Event](r.config.Rate, opts...)
	case ModePoisson:
		if r.config.Seed != nil {
			base = pace.GenPoissonCat[*event.Event](
				random.NewPCG(*r.config.Seed, 0), r.config.Rate, opts...)
		} else {
			base = pace.PoissonCat[*event.Event](r.config.Rate, opts...)
		}
	case ModeSchedule:
		base = pace.CatAtRelativeTimes[*event.Event](r.config.Offsets, opts...)
	}

	if r.config.SkipExpired {
		var drop stream.Stage[*event.Event, stream.Unit]
		if r.config.Mode == ModeRelative {
			drop = pace.DropRelativeExpired[*event.Event](opts...)
		} else {
			drop = pace.DropExpired[*event.Event](opts...)
		}
		base = stream.Then(drop, base)
	}
	return base
}

// wrapSource counts received events and applies the time-base rewrite when
// rebasing is enabled.
func (r *Replayer) wrapSource() *countingSource {
	cs := &countingSource{
		in:      r.source,
		service: r.name,
		metrics: r.coreMetrics,
	}
	if r.config.Rebase {
		cs.rebase = true
		cs.t0 = r.clk.Now()
	}
	return cs
}

func (r *Replayer) setStatusMetric(v float64) {
	if r.coreMetrics != nil {
		r.coreMetrics.ServiceStatus.WithLabelValues(r.name).Set(v)
	}
}

// Meta returns component metadata
func (r *Replayer) Meta() component.Metadata {
	return component.Metadata{
		Name:        r.name,
		Type:        "service",
		Description: fmt.Sprintf("Replays recorded events in %s mode", r.config.Mode),
		Version:     "1.0.0",
	}
}

// Health aggregates the session's health with its components'
func (r *Replayer) Health() component.HealthStatus {
	r.mu.Lock()
	state := r.state
	startTime := r.startTime
	runErr := r.runErr
	r.mu.Unlock()

	healthy := state == component.StateStarted
	errCount := 0
	lastErr := ""
	if runErr != nil {
		errCount = 1
		lastErr = runErr.Error()
	}

	for _, sink := range r.sinks {
		h := sink.Health()
		errCount += h.ErrorCount
		if !h.Healthy {
			healthy = false
			if lastErr == "" {
				lastErr = h.LastError
			}
		}
	}

	var uptime time.Duration
	if state == component.StateStarted {
		uptime = time.Since(startTime)
	}

	return component.HealthStatus{
		Healthy:    healthy,
		LastCheck:  time.Now(),
		ErrorCount: errCount,
		LastError:  lastErr,
		Uptime:     uptime,
	}
}

// countingSource wraps the recording source with receive accounting and the
// optional time-base rewrite.
type countingSource struct {
	in       stream.Receiver[*event.Event]
	service  string
	metrics  *metric.Metrics
	rebase   bool
	t0       time.Time
	received int64
}

func (c *countingSource) Recv(ctx context.Context) (*event.Event, bool, error) {
	v, ok, err := c.in.Recv(ctx)
	if err != nil || !ok {
		return v, ok, err
	}
	c.received++
	if c.metrics != nil {
		c.metrics.ElementsReceived.WithLabelValues(c.service).Inc()
	}
	if c.rebase {
		v.At = clock.At(c.t0, v.Offset)
	}
	return v, true, nil
}

// fanout delivers each paced event to every sink in order. A sink error
// aborts the pipeline; sinks that tolerate slow consumers handle that
// internally.
type fanout struct {
	sinks []Sink
}

func (f *fanout) Emit(ctx context.Context, v *event.Event) error {
	for _, sink := range f.sinks {
		if err := sink.Emit(ctx, v); err != nil {
			return err
		}
	}
	return nil
}
