package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LifecycleMetrics records purchase order lifecycle activity: accepted
// transitions, rejected actions, payments, received units and the latency
// of calls to the order store.
type LifecycleMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	transitionTotal *Counter
	rejectionTotal  *Counter
	paymentTotal    *Counter
	unitsReceived   *Counter
	serviceDuration *Histogram
}

// LifecycleMetricsConfig holds configuration for lifecycle metrics.
type LifecycleMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewLifecycleMetrics creates a new LifecycleMetrics instance.
func NewLifecycleMetrics(cfg LifecycleMetricsConfig) (*LifecycleMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LifecycleMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error
	lm.transitionTotal, err = NewCounter(
		cfg.Meter,
		"po_transition_total",
		"Total number of persisted purchase order transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	lm.rejectionTotal, err = NewCounter(
		cfg.Meter,
		"po_action_rejected_total",
		"Total number of rejected purchase order actions",
		"{actions}",
	)
	if err != nil {
		return nil, err
	}

	lm.paymentTotal, err = NewCounter(
		cfg.Meter,
		"po_payment_total",
		"Total number of supplier payments recorded",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	lm.unitsReceived, err = NewCounter(
		cfg.Meter,
		"po_units_received_total",
		"Total number of units booked in against purchase orders",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	lm.serviceDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "po_order_service_duration_seconds",
		Description: "Duration of calls to the order store",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return lm, nil
}

// RecordTransition records a persisted status transition.
func (lm *LifecycleMetrics) RecordTransition(ctx context.Context, action, from, to string) {
	lm.transitionTotal.Inc(ctx,
		AttrAction.String(action),
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
	)
}

// RecordRejection records an action refused with the given error kind.
func (lm *LifecycleMetrics) RecordRejection(ctx context.Context, action, kind string) {
	lm.rejectionTotal.Inc(ctx,
		AttrAction.String(action),
		AttrErrorKind.String(kind),
	)
}

// RecordPayment records a supplier payment.
func (lm *LifecycleMetrics) RecordPayment(ctx context.Context, paymentMethod, status string) {
	lm.paymentTotal.Inc(ctx,
		AttrPaymentMethod.String(paymentMethod),
		AttrPaymentStatus.String(status),
	)
}

// RecordUnitsReceived adds received units for a receiving action.
func (lm *LifecycleMetrics) RecordUnitsReceived(ctx context.Context, action string, units int) {
	if units <= 0 {
		return
	}
	lm.unitsReceived.Add(ctx, int64(units), AttrAction.String(action))
}

// RecordServiceCall records how long a call to the order store took.
func (lm *LifecycleMetrics) RecordServiceCall(ctx context.Context, operation string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	lm.serviceDuration.RecordDuration(ctx, d,
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLifecycleMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Lifecycle attribute keys
var (
	AttrAction     = attribute.Key("action")
	AttrFromStatus = attribute.Key("from_status")
	AttrToStatus   = attribute.Key("to_status")
	AttrErrorKind  = attribute.Key("error_kind")
	AttrOperation  = attribute.Key("operation")
	AttrOutcome    = attribute.Key("outcome")
)
