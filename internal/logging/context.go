package logging

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey namespaces values stored on a context.Context.
type ContextKey string

// CallIDKey is the context key for a hall call's correlation id, attached
// when the dispatcher accepts a CALL connection and threaded through every
// log line for that call's lifetime.
const CallIDKey ContextKey = "call_id"

// NewCallID mints a correlation id for one hall call.
func NewCallID() string {
	return uuid.NewString()
}

// WithCallID attaches a call correlation id to ctx.
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, CallIDKey, callID)
}

// CallID retrieves the call correlation id from ctx, or "" if absent.
func CallID(ctx context.Context) string {
	if v, ok := ctx.Value(CallIDKey).(string); ok {
		return v
	}
	return ""
}
