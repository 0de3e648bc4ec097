package jsonl

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streampace/component"
	"github.com/c360/streampace/errors"
)

func writeRecording(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func newTestSource(t *testing.T, path string) *Source {
	t.Helper()
	raw, err := json.Marshal(Config{Path: path})
	require.NoError(t, err)

	src, err := NewSource(raw, component.Dependencies{})
	require.NoError(t, err)
	require.NoError(t, src.Initialize())
	require.NoError(t, src.Start(context.Background()))
	t.Cleanup(func() { _ = src.Stop(time.Second) })
	return src
}

func TestConfigValidate(t *testing.T) {
	c := &Config{}
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	c.Path = "/tmp/recording.jsonl"
	assert.NoError(t, c.Validate())
}

func TestRecv_OffsetsFromFirstEvent(t *testing.T) {
	path := writeRecording(t, `{"t":"2025-04-01T10:00:00Z","data":{"n":1}}
{"t":"2025-04-01T10:00:02.5Z","data":{"n":2}}

{"t":"2025-04-01T10:00:10Z","data":{"n":3}}
`)
	src := newTestSource(t, path)
	ctx := context.Background()

	e1, ok, err := src.Recv(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.0, e1.TMinusSec())

	e2, ok, err := src.Recv(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.5, e2.TMinusSec())
	assert.Equal(t, 2500*time.Millisecond, e2.At.Sub(e1.At))

	e3, ok, err := src.Recv(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10.0, e3.TMinusSec())

	// End of recording
	_, ok, err = src.Recv(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecv_MalformedLine(t *testing.T) {
	path := writeRecording(t, `{"t":"2025-04-01T10:00:00Z","data":{}}
not json
`)
	src := newTestSource(t, path)
	ctx := context.Background()

	_, ok, err := src.Recv(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = src.Recv(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Contains(t, err.Error(), "line 2")

	health := src.Health()
	assert.False(t, health.Healthy)
	assert.Equal(t, 1, health.ErrorCount)
}

func TestRecv_ContextCancelled(t *testing.T) {
	path := writeRecording(t, `{"t":"2025-04-01T10:00:00Z","data":{}}`)
	src := newTestSource(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := src.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLifecycle(t *testing.T) {
	path := writeRecording(t, `{"t":1743501600,"data":{}}`)
	raw, err := json.Marshal(Config{Path: path})
	require.NoError(t, err)

	src, err := NewSource(raw, component.Dependencies{})
	require.NoError(t, err)

	// Start before Initialize fails
	require.Error(t, src.Start(context.Background()))

	require.NoError(t, src.Initialize())
	require.NoError(t, src.Start(context.Background()))

	// Double start fails
	require.Error(t, src.Start(context.Background()))

	meta := src.Meta()
	assert.Equal(t, "jsonl-input", meta.Name)
	assert.Equal(t, "input", meta.Type)

	require.NoError(t, src.Stop(time.Second))
	// Stop is idempotent
	require.NoError(t, src.Stop(time.Second))
}

func TestInitialize_MissingFile(t *testing.T) {
	raw, err := json.Marshal(Config{Path: "/nonexistent/recording.jsonl"})
	require.NoError(t, err)

	src, err := NewSource(raw, component.Dependencies{})
	require.NoError(t, err)

	err = src.Initialize()
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}
