package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestSetup_RejectsUnknownLevel checks that configuration typos surface as errors.
func TestSetup_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Setup("loud"), ErrUnknownLevel)
	require.NoError(t, Setup(""))
}

// TestFromContext_ScopedLogger ensures helpers write through the logger stored in the context.
func TestFromContext_ScopedLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())
	ctx = WithName(ctx, "detector")
	ctx = WithKV(ctx, "user_id", "u-1")

	InfoKV(ctx, "Toggle accepted", "window_size", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "detector", entries[0].LoggerName)
	require.Equal(t, "Toggle accepted", entries[0].Message)

	fields := entries[0].ContextMap()
	require.Equal(t, "u-1", fields["user_id"])
	require.EqualValues(t, 3, fields["window_size"])
}

// TestFromContext_FallsBackToGlobal returns the global logger for bare contexts.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}
