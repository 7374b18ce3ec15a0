package common

import (
	"context"
)

type contextKey string

const (
	// ActorKey carries the authenticated actor (user id) through a request
	ActorKey contextKey = "actor"

	// RequestIDKey carries the request correlation id
	RequestIDKey contextKey = "request_id"
)

// WithActor attaches the acting user to the context
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// ActorFromContext returns the acting user, or "system" when the operation
// did not originate from an authenticated request (background workers)
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok && actor != "" {
		return actor
	}
	return "system"
}

// WithRequestID attaches the request correlation id to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFromContext returns the request correlation id, if any
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
