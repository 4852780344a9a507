package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	parseIDKey   ctxKey = "parse_id"
)

// ContextWithRequestID stores the provided request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithParseID stores the provided parse ID in the context.
func ContextWithParseID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, parseIDKey, id)
}

// RequestIDFromContext extracts the request ID from context if present.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// ParseIDFromContext extracts the parse ID from context if present.
func ParseIDFromContext(ctx context.Context) string {
	return stringValue(ctx, parseIDKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithContext enriches l with the identifiers stored in ctx.
func WithContext(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	c := l.With()
	if id := RequestIDFromContext(ctx); id != "" {
		c = c.Str(FieldRequestID, id)
	}
	if id := ParseIDFromContext(ctx); id != "" {
		c = c.Str(FieldParseID, id)
	}
	return c.Logger()
}
