package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// RequestIDKey is the field name carrying the API request id.
const RequestIDKey = "request_id"

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the context logger, or a no-op logger so library code
// can log unconditionally.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// With returns a context whose logger carries the extra fields.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With(fields...))
}

// WithRequestID stores base, tagged with the request id, in ctx. An empty id
// leaves base untagged.
func WithRequestID(ctx context.Context, base *zap.Logger, id string) (context.Context, *zap.Logger) {
	l := base
	if id != "" {
		l = base.With(zap.String(RequestIDKey, id))
	}
	return ContextWithLogger(ctx, l), l
}
