package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel(""))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestRequestIDIsAttached(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core))

	ctx := WithRequestID(context.Background(), "req-1")
	l.Info(ctx, "hello", zap.String("pair", "BTC/USD"))
	l.Debug(context.Background(), "no id")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "BTC/USD", entries[0].ContextMap()["pair"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestWithRequestIDGeneratesID(t *testing.T) {
	id, ok := RequestID(WithRequestID(context.Background(), ""))
	require.True(t, ok)
	assert.Len(t, id, 36)
}

func TestGetLogger(t *testing.T) {
	fallback := NewNop()
	assert.Same(t, fallback, GetLogger(context.Background(), fallback))

	l := NewNop()
	assert.Same(t, l, GetLogger(IntoContext(context.Background(), l), fallback))
}
