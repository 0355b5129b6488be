package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return sr
}

func tracedRouter(cfg TracingConfig, status int) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(Tracing(cfg)...)
	router.Use(ActorHeader())
	handler := func(c *gin.Context) {
		if status >= http.StatusBadRequest {
			c.Set(ErrorCodeContextKey, "ERR_PAYMENT_REQUIRED")
		}
		c.JSON(status, gin.H{})
	}
	router.POST("/orders/:id/receive", handler)
	router.GET("/health", handler)
	return router
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range sr.Ended() {
		if s.Name() == name {
			return s
		}
	}
	require.FailNow(t, "span not found", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	cfg := DefaultTracingConfig()
	cfg.Enabled = false

	assert.Empty(t, Tracing(cfg))

	w := httptest.NewRecorder()
	tracedRouter(cfg, http.StatusOK).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders/1/receive", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_SpanCarriesRequestAndActor(t *testing.T) {
	sr := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodPost, "/orders/1/receive", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	req.Header.Set(HeaderActorID, "7c8b0d8e-54a4-4d7e-9b0c-2f1a3f8f2b11")
	w := httptest.NewRecorder()
	tracedRouter(DefaultTracingConfig(), http.StatusOK).ServeHTTP(w, req)

	span := findSpan(t, sr, "POST /orders/:id/receive")
	v, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-42", v)
	v, ok = spanAttr(span, "actor_id")
	require.True(t, ok)
	assert.Equal(t, "7c8b0d8e-54a4-4d7e-9b0c-2f1a3f8f2b11", v)
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTracing_InvalidActorNotTagged(t *testing.T) {
	sr := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodPost, "/orders/1/receive", nil)
	req.Header.Set(HeaderActorID, "not-a-uuid")
	tracedRouter(DefaultTracingConfig(), http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	_, ok := spanAttr(findSpan(t, sr, "POST /orders/:id/receive"), "actor_id")
	assert.False(t, ok)
}

func TestTracing_ClientErrorMarksSpan(t *testing.T) {
	sr := setupTestTracer(t)

	tracedRouter(DefaultTracingConfig(), http.StatusPaymentRequired).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/orders/1/receive", nil))

	span := findSpan(t, sr, "POST /orders/:id/receive")
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "Payment Required", span.Status().Description)
	v, ok := spanAttr(span, "error_code")
	require.True(t, ok)
	assert.Equal(t, "ERR_PAYMENT_REQUIRED", v)
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	sr := setupTestTracer(t)

	tracedRouter(DefaultTracingConfig(), http.StatusServiceUnavailable).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/orders/1/receive", nil))

	assert.Equal(t, codes.Error, findSpan(t, sr, "POST /orders/:id/receive").Status().Code)
}

func TestTracing_SkipsHealth(t *testing.T) {
	sr := setupTestTracer(t)

	w := httptest.NewRecorder()
	tracedRouter(DefaultTracingConfig(), http.StatusOK).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}
