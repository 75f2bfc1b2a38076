package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type ctxKey string

// Context keys whose values are lifted into log fields by WithCtx.
const (
	UsernameKey  ctxKey = "username"
	RequestIDKey ctxKey = "request_id"
	ClientIDKey  ctxKey = "client_id"
)

var logger *zap.Logger

func init() {
	Init(os.Getenv("DEBUG") == "true")
}

// Init rebuilds the package logger. Call it once settings from .env are
// loaded, since init only sees the process environment.
func Init(debug bool) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		l = zap.NewNop()
	}
	logger = l
}

func WithCtx(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return logger
	}

	fields := []zap.Field{}

	for _, key := range []ctxKey{RequestIDKey, ClientIDKey, UsernameKey} {
		if v := ctx.Value(key); v != nil {
			fields = append(fields, zap.Any(string(key), v))
		}
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}

// Sync flushes buffered entries; call it before the process exits.
func Sync() {
	_ = logger.Sync()
}
