// Package logging carries a request-scoped slog.Logger through a context.
package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// WithCorrelationID tags every log line emitted through ctx with id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With("correlation_id", id))
}
