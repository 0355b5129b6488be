package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
)

// EventSerializer converts domain events to and from JSON
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type
}

// NewEventSerializer creates a serializer with no registered types
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{registry: make(map[string]reflect.Type)}
}

// NewPurchasingSerializer creates a serializer that knows every purchase
// order event
func NewPurchasingSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(purchasing.EventTypeOrderCreated, &purchasing.OrderCreatedEvent{})
	s.Register(purchasing.EventTypeStatusChanged, &purchasing.StatusChangedEvent{})
	s.Register(purchasing.EventTypeGoodsReceived, &purchasing.GoodsReceivedEvent{})
	s.Register(purchasing.EventTypePaymentRecorded, &purchasing.PaymentRecordedEvent{})
	s.Register(purchasing.EventTypeQualityChecked, &purchasing.QualityCheckedEvent{})
	s.Register(purchasing.EventTypeQualityIssuesFound, &purchasing.QualityIssuesFoundEvent{})
	s.Register(purchasing.EventTypeReturnRecorded, &purchasing.ReturnRecordedEvent{})
	return s
}

// Register associates eventType with the concrete type of eventInstance
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize encodes an event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// Deserialize decodes data into the type registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	eventPtr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, eventPtr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("type registered for %s does not implement DomainEvent", eventType)
	}
	return event, nil
}

// IsRegistered reports whether eventType can be deserialized
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry[eventType]
	return ok
}
