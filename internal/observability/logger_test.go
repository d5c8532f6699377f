package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/PabloGalante/scam-harness/internal/observability"
)

func TestLoggerFromContext_AddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	observability.SetLogger(zap.New(core))
	t.Cleanup(func() { observability.SetLogger(nil) })

	ctx := observability.WithRequestID(context.Background(), "req-1")
	observability.LoggerFromContext(ctx).Info("hello")
	observability.LoggerFromContext(context.Background()).Info("bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestInit_RejectsUnknownLevel(t *testing.T) {
	_, err := observability.Init("shouting", "json")
	assert.Error(t, err)
}

func TestInit_DebugLevel(t *testing.T) {
	l, err := observability.Init("debug", "console")
	require.NoError(t, err)
	t.Cleanup(func() { observability.SetLogger(nil) })

	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.Same(t, l, observability.Logger())
}
