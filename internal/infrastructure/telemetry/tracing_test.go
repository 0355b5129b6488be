package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/purchasing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrsOf(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	recorder := setupRecorder(t)
	orderID := uuid.New()

	_, span := telemetry.StartServiceSpan(context.Background(), "purchase_order", "approve",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrVersion, 3,
		telemetry.SpanAttrOrderStatus, "approved",
		42, "ignored",
		"dangling",
	)
	telemetry.AddEvent(span, "order_reloaded", telemetry.SpanAttrVersion, int64(4))
	telemetry.SetOK(span)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := spans[0]
	assert.Equal(t, "purchase_order.approve", got.Name())
	assert.Equal(t, trace.SpanKindServer, got.SpanKind())
	assert.Equal(t, codes.Ok, got.Status().Code)
	assert.Equal(t, telemetry.TracerName, got.InstrumentationScope().Name)

	attrs := attrsOf(got)
	assert.Equal(t, orderID.String(), attrs[telemetry.SpanAttrOrderID].AsString())
	assert.Equal(t, int64(3), attrs[telemetry.SpanAttrVersion].AsInt64())
	assert.Equal(t, "approved", attrs[telemetry.SpanAttrOrderStatus].AsString())
	assert.Len(t, attrs, 3)

	require.Len(t, got.Events(), 1)
	assert.Equal(t, "order_reloaded", got.Events()[0].Name)
}

func TestRecordError(t *testing.T) {
	recorder := setupRecorder(t)

	_, span := telemetry.StartSpan(context.Background(), "order_service.PersistStatus")
	telemetry.RecordError(span, nil)
	telemetry.RecordError(span, errors.New("connection refused"))
	span.End()

	got := recorder.Ended()[0]
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "connection refused", got.Status().Description)
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "exception", got.Events()[0].Name)
}

func TestHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "e")
	})
}
