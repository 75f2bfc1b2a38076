package log

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCtxLiftsKnownKeys(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger
	logger = zap.New(core)
	defer func() { logger = prev }()

	ctx := context.WithValue(context.Background(), UsernameKey, "alice")
	ctx = context.WithValue(ctx, RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, "unrelated", "ignored")

	WithCtx(ctx).Info("resolved")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["username"] != "alice" {
		t.Errorf("username field = %v", fields["username"])
	}
	if fields["request_id"] != "req-1" {
		t.Errorf("request_id field = %v", fields["request_id"])
	}
	if _, ok := fields["unrelated"]; ok {
		t.Error("unexpected field lifted from context")
	}
}

func TestInitSwitchesLevel(t *testing.T) {
	prev := logger
	defer func() { logger = prev }()

	Init(true)
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug logger should enable debug level")
	}

	Init(false)
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger should not enable debug level")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("production logger should enable info level")
	}
}
