package event

import (
	"context"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"go.uber.org/zap"
)

// JournalHandler writes every purchase order event to the log as JSON so the
// event history can be shipped alongside the audit trail
type JournalHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewJournalHandler creates a journal handler
func NewJournalHandler(serializer *EventSerializer, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{serializer: serializer, logger: logger.Named("event_journal")}
}

// Handle logs the event. Quality issues are logged at warn level.
func (h *JournalHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("order_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	}
	if event.EventType() == purchasing.EventTypeQualityIssuesFound {
		h.logger.Warn("Purchase order event", fields...)
		return nil
	}
	h.logger.Info("Purchase order event", fields...)
	return nil
}

// EventTypes returns nil so the handler receives every event
func (h *JournalHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*JournalHandler)(nil)
