package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streampace/component"
	"github.com/c360/streampace/errors"
	"github.com/c360/streampace/event"
)

func newTestBroadcaster(t *testing.T) *Broadcaster {
	t.Helper()
	raw, err := json.Marshal(Config{Port: 0, Path: "/ws"})
	require.NoError(t, err)

	b, err := NewBroadcaster(raw, component.Dependencies{})
	require.NoError(t, err)
	require.NoError(t, b.Initialize())
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Stop(5 * time.Second) })
	return b
}

func dial(t *testing.T, b *Broadcaster) *gorilla.Conn {
	t.Helper()
	url := fmt.Sprintf("ws://%s/ws", b.Address())
	conn, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, b *Broadcaster, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, b.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	assert.NoError(t, c.Validate())

	c.Port = -1
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	c = Config{Port: 8081}
	err = c.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestBroadcast(t *testing.T) {
	b := newTestBroadcaster(t)
	conn := dial(t, b)
	waitForClients(t, b, 1)

	at := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	e := &event.Event{At: at, Data: json.RawMessage(`{"n":1}`)}
	require.NoError(t, b.Emit(context.Background(), e))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got event.Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.True(t, got.At.Equal(at))
	assert.JSONEq(t, `{"n":1}`, string(got.Data))
}

func TestBroadcast_MultipleClients(t *testing.T) {
	b := newTestBroadcaster(t)
	c1 := dial(t, b)
	c2 := dial(t, b)
	waitForClients(t, b, 2)

	e := &event.Event{At: time.Now(), Data: json.RawMessage(`{}`)}
	require.NoError(t, b.Emit(context.Background(), e))

	for _, conn := range []*gorilla.Conn{c1, c2} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		require.NoError(t, err)
	}
}

func TestBroadcast_NoClients(t *testing.T) {
	b := newTestBroadcaster(t)

	e := &event.Event{At: time.Now(), Data: json.RawMessage(`{}`)}
	assert.NoError(t, b.Emit(context.Background(), e))
}

func TestClientDisconnect(t *testing.T) {
	b := newTestBroadcaster(t)
	conn := dial(t, b)
	waitForClients(t, b, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, b, 0)
}

func TestEmit_ContextCancelled(t *testing.T) {
	b := newTestBroadcaster(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Emit(ctx, &event.Event{At: time.Now()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLifecycle(t *testing.T) {
	raw, err := json.Marshal(Config{Port: 0, Path: "/ws"})
	require.NoError(t, err)

	b, err := NewBroadcaster(raw, component.Dependencies{})
	require.NoError(t, err)

	// Start before Initialize fails
	require.Error(t, b.Start(context.Background()))

	require.NoError(t, b.Initialize())
	require.NoError(t, b.Start(context.Background()))
	require.Error(t, b.Start(context.Background()))

	meta := b.Meta()
	assert.Equal(t, "websocket-output", meta.Name)
	assert.Equal(t, "output", meta.Type)
	assert.True(t, b.Health().Healthy)

	require.NoError(t, b.Stop(5*time.Second))
	require.NoError(t, b.Stop(5*time.Second))
	assert.False(t, b.Health().Healthy)
}
