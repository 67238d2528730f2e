package middleware

import "context"

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxTableID   contextKey = "table_id"
)

// SessionIDFromContext returns the session scope set by WithSessionID, or "".
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// TableIDFromContext returns the table scope, or "".
func TableIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTableID).(string); ok {
		return v
	}
	return ""
}

// WithSessionID injects the session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithTableID injects the table identifier into the context.
func WithTableID(ctx context.Context, tableID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTableID, tableID)
}
