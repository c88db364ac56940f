package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// With attaches a child logger carrying the given fields to the context.
// Handlers further down the chain pick it up via From, so request-scoped
// attributes like the trace id follow every log line.
func With(ctx context.Context, fields ...any) context.Context {
	return context.WithValue(ctx, ctxKey{}, From(ctx).With(fields...))
}

// From returns the logger carried by ctx, falling back to the process logger.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
