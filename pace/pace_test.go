package pace_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streampace/pace"
	"github.com/c360/streampace/stream"
	"github.com/c360/streampace/testutil"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// stamped carries an absolute deadline.
type stamped struct {
	id string
	at time.Time
}

func (s stamped) TimeOf() time.Time { return s.at }

// offset carries a signed offset in seconds from stage start.
type offset struct {
	id  string
	sec float64
}

func (o offset) TMinusSec() float64 { return o.sec }

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = id(v)
	}
	return out
}

func stampedIDs(items []stamped) []string {
	return ids(items, func(s stamped) string { return s.id })
}

func TestTimeCat_FutureDeadlines(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(
		stamped{"a", epoch.Add(100 * time.Millisecond)},
		stamped{"b", epoch.Add(250 * time.Millisecond)},
		stamped{"c", epoch.Add(900 * time.Millisecond)},
	)
	sink := testutil.NewTimedCollectEmitter[stamped](clk.Now)

	_, err := pace.TimeCat[stamped](pace.WithClock(clk))(context.Background(), src, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, stampedIDs(sink.Items()))
	assert.Equal(t, []time.Time{
		epoch.Add(100 * time.Millisecond),
		epoch.Add(250 * time.Millisecond),
		epoch.Add(900 * time.Millisecond),
	}, sink.Times())
}

func TestTimeCat_PastDeadlinesEmitImmediately(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(
		stamped{"old", epoch.Add(-time.Hour)},
		stamped{"older", epoch.Add(-2 * time.Hour)},
	)
	sink := testutil.NewTimedCollectEmitter[stamped](clk.Now)

	_, err := pace.TimeCat[stamped](pace.WithClock(clk))(context.Background(), src, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"old", "older"}, stampedIDs(sink.Items()))
	// No virtual time elapsed at all.
	assert.Equal(t, []time.Time{epoch, epoch}, sink.Times())
}

func TestTimeCat_OutOfOrderInputNotReordered(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(
		stamped{"late", epoch.Add(time.Second)},
		stamped{"early", epoch.Add(500 * time.Millisecond)},
	)
	sink := testutil.NewTimedCollectEmitter[stamped](clk.Now)

	_, err := pace.TimeCat[stamped](pace.WithClock(clk))(context.Background(), src, sink)
	require.NoError(t, err)

	// The earlier-stamped element arrives second and is emitted as soon as
	// received, at the clock position the first element left behind.
	assert.Equal(t, []string{"late", "early"}, stampedIDs(sink.Items()))
	assert.Equal(t, []time.Time{
		epoch.Add(time.Second),
		epoch.Add(time.Second),
	}, sink.Times())
}

func TestRelativeTimeCat_OffsetsFromActivation(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(
		offset{"a", 0.5},
		offset{"b", 1.25},
		offset{"c", 1.25},
	)
	sink := testutil.NewTimedCollectEmitter[offset](clk.Now)

	_, err := pace.RelativeTimeCat[offset](pace.WithClock(clk))(context.Background(), src, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ids(sink.Items(), func(o offset) string { return o.id }))
	assert.Equal(t, []time.Time{
		epoch.Add(500 * time.Millisecond),
		epoch.Add(1250 * time.Millisecond),
		epoch.Add(1250 * time.Millisecond),
	}, sink.Times())
}

func TestRelativeTimeCat_NegativeOffsetImmediate(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(offset{"past", -3})
	sink := testutil.NewTimedCollectEmitter[offset](clk.Now)

	_, err := pace.RelativeTimeCat[offset](pace.WithClock(clk))(context.Background(), src, sink)
	require.NoError(t, err)

	require.Len(t, sink.Items(), 1)
	assert.Equal(t, epoch, sink.Times()[0])
}

func TestDropExpired_ConsumesFirstFreshAndReturns(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(
		stamped{"v1", epoch.Add(-2 * time.Second)},
		stamped{"v2", epoch.Add(-time.Second)},
		stamped{"v3", epoch.Add(time.Second)},
		stamped{"v4", epoch.Add(2 * time.Second)},
	)
	sink := testutil.NewCollectEmitter[stamped]()

	_, err := pace.DropExpired[stamped](pace.WithClock(clk))(context.Background(), src, sink)
	require.NoError(t, err)

	// v1 and v2 dropped, v3 consumed but never emitted, v4 never received.
	assert.Empty(t, sink.Items())
	assert.Equal(t, 1, src.Remaining())
}

func TestDropExpired_DeadlineEqualToNowIsFresh(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(
		stamped{"boundary", epoch},
		stamped{"next", epoch.Add(time.Second)},
	)
	sink := testutil.NewCollectEmitter[stamped]()

	_, err := pace.DropExpired[stamped](pace.WithClock(clk))(context.Background(), src, sink)
	require.NoError(t, err)

	assert.Empty(t, sink.Items())
	assert.Equal(t, 1, src.Remaining())
}

func TestDropExpired_AllExpiredEndsWithStream(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(
		stamped{"v1", epoch.Add(-time.Minute)},
		stamped{"v2", epoch.Add(-time.Second)},
	)
	sink := testutil.NewCollectEmitter[stamped]()

	_, err := pace.DropExpired[stamped](pace.WithClock(clk))(context.Background(), src, sink)
	require.NoError(t, err)

	assert.Empty(t, sink.Items())
	assert.Equal(t, 0, src.Remaining())
}

func TestDropRelativeExpired(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(
		offset{"v1", -5},
		offset{"v2", -0.1},
		offset{"v3", 0}, // zero offset is not expired
		offset{"v4", 1},
	)
	sink := testutil.NewCollectEmitter[offset]()

	_, err := pace.DropRelativeExpired[offset](pace.WithClock(clk))(context.Background(), src, sink)
	require.NoError(t, err)

	assert.Empty(t, sink.Items())
	assert.Equal(t, 1, src.Remaining())
}

func TestDropExpiredThenTimeCat_HandoffLosesExactlyOneElement(t *testing.T) {
	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(
		stamped{"stale", epoch.Add(-time.Second)},
		stamped{"consumed", epoch.Add(time.Second)},
		stamped{"kept", epoch.Add(2 * time.Second)},
	)
	sink := testutil.NewTimedCollectEmitter[stamped](clk.Now)

	chained := stream.Then(
		pace.DropExpired[stamped](pace.WithClock(clk)),
		pace.TimeCat[stamped](pace.WithClock(clk)),
	)

	_, err := chained(context.Background(), src, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"kept"}, stampedIDs(sink.Items()))
	assert.Equal(t, []time.Time{epoch.Add(2 * time.Second)}, sink.Times())
}

func TestStages_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clk := testutil.NewFakeClock(epoch)
	src := testutil.NewSliceReceiver(stamped{"a", epoch.Add(time.Second)})
	sink := testutil.NewCollectEmitter[stamped]()

	_, err := pace.TimeCat[stamped](pace.WithClock(clk))(ctx, src, sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.Items())
}
