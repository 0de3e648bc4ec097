package replayer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streampace/component"
	"github.com/c360/streampace/errors"
	"github.com/c360/streampace/event"
	"github.com/c360/streampace/testutil"
)

// fakeSource yields a fixed set of events with a no-op lifecycle.
type fakeSource struct {
	events []*event.Event
	next   int
	mu     sync.Mutex
}

func (f *fakeSource) Initialize() error              { return nil }
func (f *fakeSource) Start(_ context.Context) error  { return nil }
func (f *fakeSource) Stop(_ time.Duration) error     { return nil }
func (f *fakeSource) Meta() component.Metadata       { return component.Metadata{Name: "fake-source"} }
func (f *fakeSource) Health() component.HealthStatus { return component.HealthStatus{Healthy: true} }

func (f *fakeSource) Recv(ctx context.Context) (*event.Event, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next >= len(f.events) {
		return nil, false, nil
	}
	v := f.events[f.next]
	f.next++
	return v, true, nil
}

// fakeSink collects emitted events with a no-op lifecycle.
type fakeSink struct {
	got []*event.Event
	mu  sync.Mutex
}

func (f *fakeSink) Initialize() error              { return nil }
func (f *fakeSink) Start(_ context.Context) error  { return nil }
func (f *fakeSink) Stop(_ time.Duration) error     { return nil }
func (f *fakeSink) Meta() component.Metadata       { return component.Metadata{Name: "fake-sink"} }
func (f *fakeSink) Health() component.HealthStatus { return component.HealthStatus{Healthy: true} }

func (f *fakeSink) Emit(_ context.Context, v *event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, v)
	return nil
}

func (f *fakeSink) events() []*event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*event.Event(nil), f.got...)
}

// blockingSource never produces; Recv parks until the pipeline is cancelled.
type blockingSource struct {
	fakeSource
}

func (b *blockingSource) Recv(ctx context.Context) (*event.Event, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

var epoch = time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

func stamped(offsets ...float64) []*event.Event {
	events := make([]*event.Event, len(offsets))
	for i, off := range offsets {
		events[i] = &event.Event{
			At:     epoch.Add(time.Duration(off * float64(time.Second))),
			Data:   json.RawMessage(`{}`),
			Offset: off,
		}
	}
	return events
}

func runReplay(t *testing.T, config Config, source Source, sink Sink) *Replayer {
	t.Helper()
	raw, err := json.Marshal(config)
	require.NoError(t, err)

	r, err := NewReplayer(raw, source, []Sink{sink}, component.Dependencies{},
		WithClock(testutil.NewFakeClock(epoch)))
	require.NoError(t, err)
	require.NoError(t, r.Initialize())
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Wait())
	return r
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "timecat", config: Config{Mode: ModeTimeCat}},
		{name: "relative", config: Config{Mode: ModeRelative}},
		{name: "steady with rate", config: Config{Mode: ModeSteady, Rate: 10}},
		{name: "steady without rate", config: Config{Mode: ModeSteady}, wantErr: true},
		{name: "poisson negative rate", config: Config{Mode: ModePoisson, Rate: -1}, wantErr: true},
		{name: "schedule with offsets", config: Config{Mode: ModeSchedule, Offsets: []float64{1, 2}}},
		{name: "schedule without offsets", config: Config{Mode: ModeSchedule}, wantErr: true},
		{name: "unknown mode", config: Config{Mode: "warp"}, wantErr: true},
		{name: "skip expired timecat", config: Config{Mode: ModeTimeCat, SkipExpired: true}},
		{name: "skip expired steady", config: Config{Mode: ModeSteady, Rate: 1, SkipExpired: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewReplayer_Validation(t *testing.T) {
	sink := &fakeSink{}
	source := &fakeSource{}

	_, err := NewReplayer(nil, nil, []Sink{sink}, component.Dependencies{})
	require.Error(t, err)

	_, err = NewReplayer(nil, source, nil, component.Dependencies{})
	require.Error(t, err)

	_, err = NewReplayer(json.RawMessage(`{"mode":"bogus"}`), source, []Sink{sink}, component.Dependencies{})
	require.Error(t, err)
}

func TestReplay_RelativeMode(t *testing.T) {
	source := &fakeSource{events: stamped(0, 1.5, 3)}
	sink := &fakeSink{}

	r := runReplay(t, Config{Mode: ModeRelative}, source, sink)

	got := sink.events()
	require.Len(t, got, 3)
	assert.Equal(t, 0.0, got[0].TMinusSec())
	assert.Equal(t, 1.5, got[1].TMinusSec())
	assert.Equal(t, 3.0, got[2].TMinusSec())
	assert.NotEmpty(t, r.SessionID())
}

func TestReplay_TimeCatWithRebase(t *testing.T) {
	// Recorded times are a day old; rebasing rewrites them against the
	// session start so the events still pace by their offsets.
	source := &fakeSource{events: []*event.Event{
		{At: epoch.Add(-24 * time.Hour), Offset: 0},
		{At: epoch.Add(-24*time.Hour + 2*time.Second), Offset: 2},
	}}
	sink := &fakeSink{}

	runReplay(t, Config{Mode: ModeTimeCat, Rebase: true}, source, sink)

	got := sink.events()
	require.Len(t, got, 2)
	assert.True(t, got[0].At.Equal(epoch))
	assert.True(t, got[1].At.Equal(epoch.Add(2*time.Second)))
}

func TestReplay_SkipExpired(t *testing.T) {
	// Two expired events are dropped, the first fresh one is consumed at the
	// handoff, and only the last reaches the sink.
	source := &fakeSource{events: []*event.Event{
		{At: epoch.Add(-2 * time.Second)},
		{At: epoch.Add(-1 * time.Second)},
		{At: epoch.Add(1 * time.Second)},
		{At: epoch.Add(2 * time.Second)},
	}}
	sink := &fakeSink{}

	runReplay(t, Config{Mode: ModeTimeCat, SkipExpired: true}, source, sink)

	got := sink.events()
	require.Len(t, got, 1)
	assert.True(t, got[0].At.Equal(epoch.Add(2*time.Second)))
}

func TestReplay_ScheduleMode(t *testing.T) {
	source := &fakeSource{events: stamped(0, 0, 0)}
	sink := &fakeSink{}

	runReplay(t, Config{Mode: ModeSchedule, Offsets: []float64{1, 2, 3}}, source, sink)

	assert.Len(t, sink.events(), 3)
}

func TestReplay_SteadyMode(t *testing.T) {
	source := &fakeSource{events: stamped(0, 0, 0, 0)}
	sink := &fakeSink{}

	runReplay(t, Config{Mode: ModeSteady, Rate: 100}, source, sink)

	assert.Len(t, sink.events(), 4)
}

func TestReplay_PoissonSeeded(t *testing.T) {
	seed := uint64(42)
	source := &fakeSource{events: stamped(0, 0, 0)}
	sink := &fakeSink{}

	runReplay(t, Config{Mode: ModePoisson, Rate: 50, Seed: &seed}, source, sink)

	assert.Len(t, sink.events(), 3)
}

func TestReplay_StopMidRun(t *testing.T) {
	source := &blockingSource{}
	sink := &fakeSink{}

	r, err := NewReplayer(json.RawMessage(`{"mode":"relative"}`), source, []Sink{sink},
		component.Dependencies{}, WithClock(testutil.NewFakeClock(epoch)))
	require.NoError(t, err)
	require.NoError(t, r.Initialize())
	require.NoError(t, r.Start(context.Background()))

	// Stopping a live pipeline is a clean completion, not a failure.
	require.NoError(t, r.Stop(time.Second))
	require.NoError(t, r.Wait())

	h := r.Health()
	assert.Empty(t, h.LastError)
	assert.Empty(t, sink.events())
}

func TestLifecycle(t *testing.T) {
	source := &fakeSource{events: stamped(0)}
	sink := &fakeSink{}

	r, err := NewReplayer(nil, source, []Sink{sink}, component.Dependencies{},
		WithClock(testutil.NewFakeClock(epoch)))
	require.NoError(t, err)

	// Wait and Start before Initialize fail
	require.Error(t, r.Wait())
	require.Error(t, r.Start(context.Background()))

	require.NoError(t, r.Initialize())
	require.NoError(t, r.Start(context.Background()))

	meta := r.Meta()
	assert.Equal(t, "replayer", meta.Name)
	assert.Equal(t, "service", meta.Type)

	require.NoError(t, r.Wait())
	require.NoError(t, r.Stop(time.Second))
	// Stop is idempotent
	require.NoError(t, r.Stop(time.Second))
}
