package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type ctxKey struct{}

// scope is the per-request logging state: the request logger plus fields
// collected for the canonical log line written when the request ends.
type scope struct {
	logger *zap.Logger

	mu     sync.Mutex
	fields []zap.Field
}

// ContextWithLogger opens a request scope carrying logger.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, &scope{logger: logger})
}

// FromContext returns the request logger, or a nop logger outside a request.
func FromContext(ctx context.Context) *zap.Logger {
	return FromContextOr(ctx, zap.NewNop())
}

// FromContextOr returns the request logger, or fallback outside a request.
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if s, ok := ctx.Value(ctxKey{}).(*scope); ok && s.logger != nil {
		return s.logger
	}
	return fallback
}

// Annotate attaches fields to the request's canonical log line.
// Outside a request scope it does nothing.
func Annotate(ctx context.Context, fields ...zap.Field) {
	s, ok := ctx.Value(ctxKey{}).(*scope)
	if !ok {
		return
	}
	s.mu.Lock()
	s.fields = append(s.fields, fields...)
	s.mu.Unlock()
}

// Annotations returns a copy of the fields added with Annotate.
func Annotations(ctx context.Context) []zap.Field {
	s, ok := ctx.Value(ctxKey{}).(*scope)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]zap.Field(nil), s.fields...)
}
