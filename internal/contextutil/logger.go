package contextutil

import (
	"context"
	"log/slog"
)

type loggerKeyType struct{}

var loggerKey loggerKeyType

// WithLogger returns a context carrying logger. Downstream code recovers it
// with LoggerFromContext so request attributes stay attached to every line.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the logger stored by WithLogger, or the process
// default logger when the context carries none.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
