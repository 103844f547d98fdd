// Package trace carries a per-message trace ID through the context so that
// every log line and ledger row for one directed message can be correlated.
package trace

import (
	"context"

	"github.com/google/uuid"
)

type traceKey struct{}

// GenerateID returns a new random trace ID.
func GenerateID() string {
	return "t_" + uuid.NewString()
}

// WithTraceID returns a child context carrying the given trace ID.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// FromContext extracts the trace ID from ctx, returning "" if absent.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceKey{}).(string); ok {
		return v
	}
	return ""
}
