// Package middleware provides the gin middleware of the purchasing API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorCodeContextKey holds the API error code written by the handler
const ErrorCodeContextKey = "error_code"

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are not traced, e.g. health checks
	SkipPaths []string
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "purchase-order-lifecycle",
		Enabled:     true,
		SkipPaths:   []string{"/health"},
	}
}

// Tracing returns the otelgin server span middleware followed by
// SpanAttributes. Spans are named "HTTP METHOD route", e.g.
// "POST /api/v1/purchasing/orders/:id/receive".
func Tracing(cfg TracingConfig) []gin.HandlerFunc {
	if !cfg.Enabled {
		return nil
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	base := otelgin.Middleware(cfg.ServiceName, otelgin.WithFilter(func(r *http.Request) bool {
		_, skipped := skip[r.URL.Path]
		return !skipped
	}))
	return []gin.HandlerFunc{base, SpanAttributes()}
}

// SpanAttributes tags the current server span with request_id and actor_id
// and marks it failed for 4xx and 5xx responses. It must run inside the
// otelgin middleware.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		c.Next()

		// the actor is known once the auth middleware has run
		if actor, ok := GetActorID(c); ok {
			span.SetAttributes(attribute.String("actor_id", actor.String()))
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		if code := c.GetString(ErrorCodeContextKey); code != "" {
			span.SetAttributes(attribute.String("error_code", code))
		}
	}
}
