package client

import (
	"context"

	"github.com/google/uuid"
)

// HeaderRequestID carries the correlation ID of a run to the upstream API.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID stores a request ID in ctx for outgoing requests.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

func ensureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.NewString()
}
