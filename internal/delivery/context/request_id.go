// Package context carries request-scoped values from the HTTP layer down to the usecases.
package context

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// HeaderXRequestID is the HTTP header name for request ID.
	HeaderXRequestID = "X-Request-Id"

	// echoKeyRequestID stores the request ID in echo.Context for response metadata
	echoKeyRequestID = "request_id"
)

type scopeKey struct{}

// scope is what the request ID middleware attaches to context.Context
type scope struct {
	requestID string
	logger    *slog.Logger
}

// GetRequestID extracts the request ID from echo.Context.
// If not found, generates a new UUID.
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(echoKeyRequestID).(string); ok && id != "" {
		return id
	}

	return uuid.New().String()
}

// SetRequestID sets the request ID in echo.Context.
func SetRequestID(c echo.Context, requestID string) {
	c.Set(echoKeyRequestID, requestID)
}

// WithScope returns a context carrying the request ID and the request-scoped logger
func WithScope(ctx context.Context, requestID string, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope{requestID: requestID, logger: logger})
}

// GetRequestIDFromContext returns the request ID, or "" outside a request
func GetRequestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(scopeKey{}).(scope); ok {
		return s.requestID
	}

	return ""
}

// GetLoggerOrDefault returns the request-scoped logger, or fallback outside a request
func GetLoggerOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if s, ok := ctx.Value(scopeKey{}).(scope); ok && s.logger != nil {
		return s.logger
	}

	return fallback
}
