// Package requestctx carries per-request identifiers below the HTTP layer so
// domain code can log and audit without importing transport packages.
package requestctx

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// WithActor records the authenticated user and tenant of the request.
func WithActor(ctx context.Context, tenantID, userID string) context.Context {
	return context.WithValue(ctx, actorKey, [2]string{tenantID, userID})
}

func GetActor(ctx context.Context) (tenantID, userID string) {
	value, _ := ctx.Value(actorKey).([2]string)
	return value[0], value[1]
}

// Logger returns the default logger annotated with whatever identifiers ctx
// carries.
func Logger(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id := GetRequestID(ctx); id != "" {
		logger = logger.With("requestId", id)
	}
	if tenantID, userID := GetActor(ctx); userID != "" {
		logger = logger.With("tenantId", tenantID, "userId", userID)
	}
	return logger
}
