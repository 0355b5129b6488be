package purchasing

import (
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypeOrderCreated       = "PurchaseOrderCreated"
	EventTypeStatusChanged      = "PurchaseOrderStatusChanged"
	EventTypeGoodsReceived      = "PurchaseOrderGoodsReceived"
	EventTypePaymentRecorded    = "PurchaseOrderPaymentRecorded"
	EventTypeQualityChecked     = "PurchaseOrderQualityChecked"
	EventTypeQualityIssuesFound = "PurchaseOrderQualityIssuesFound"
	EventTypeReturnRecorded     = "PurchaseOrderReturnRecorded"
)

// OrderCreatedEvent is raised when a new purchase order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	Currency     string          `json:"currency"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *PurchaseOrder) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypePurchaseOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		SupplierName:    order.SupplierName,
		Currency:        string(order.Currency),
		TotalAmount:     order.TotalAmount,
	}
}

// StatusChangedEvent is raised after any persisted status transition
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Action  Action    `json:"action"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
	ActorID uuid.UUID `json:"actor_id"`
	Note    string    `json:"note,omitempty"`
}

// NewStatusChangedEvent creates a new StatusChangedEvent
func NewStatusChangedEvent(orderID uuid.UUID, action Action, from, to Status, actorID uuid.UUID, note string) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStatusChanged, AggregateTypePurchaseOrder, orderID),
		OrderID:         orderID,
		Action:          action,
		From:            from,
		To:              to,
		ActorID:         actorID,
		Note:            note,
	}
}

// GoodsReceivedEvent is raised after a receipt has been persisted
type GoodsReceivedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID     `json:"order_id"`
	Action        Action        `json:"action"`
	Lines         []ReceiptLine `json:"lines"`
	UnitsReceived int           `json:"units_received"`
	SerialUnits   int           `json:"serial_units"`
	FullyReceived bool          `json:"fully_received"`
	ActorID       uuid.UUID     `json:"actor_id"`
}

// NewGoodsReceivedEvent creates a new GoodsReceivedEvent from a receipt plan
func NewGoodsReceivedEvent(plan *ReceiptPlan) *GoodsReceivedEvent {
	return &GoodsReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsReceived, AggregateTypePurchaseOrder, plan.OrderID),
		OrderID:         plan.OrderID,
		Action:          plan.Action,
		Lines:           plan.Lines,
		UnitsReceived:   plan.UnitsReceived,
		SerialUnits:     len(plan.Units),
		FullyReceived:   plan.FullyReceived,
		ActorID:         plan.ActorID,
	}
}

// PaymentRecordedEvent is raised after a payment has been persisted
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID           `json:"order_id"`
	PaymentID     uuid.UUID           `json:"payment_id"`
	Method        PaymentMethod       `json:"method"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	OrderAmount   decimal.Decimal     `json:"order_amount"`
	Status        PaymentRecordStatus `json:"status"`
	PaymentStatus PaymentStatus       `json:"payment_status"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(req *PaymentRequest) *PaymentRecordedEvent {
	p := req.Payment
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePurchaseOrder, p.OrderID),
		OrderID:         p.OrderID,
		PaymentID:       p.ID,
		Method:          p.Method,
		Amount:          p.Amount,
		Currency:        string(p.Currency),
		OrderAmount:     p.OrderAmount,
		Status:          p.Status,
		PaymentStatus:   req.NewPaymentStatus,
	}
}

// QualityCheckedEvent is raised after a quality check has been persisted
type QualityCheckedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID      `json:"order_id"`
	From    Status         `json:"from"`
	To      Status         `json:"to"`
	Summary QualitySummary `json:"summary"`
}

// NewQualityCheckedEvent creates a new QualityCheckedEvent
func NewQualityCheckedEvent(plan *QualityPlan) *QualityCheckedEvent {
	return &QualityCheckedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQualityChecked, AggregateTypePurchaseOrder, plan.OrderID),
		OrderID:         plan.OrderID,
		From:            plan.From,
		To:              plan.To,
		Summary:         plan.Summary,
	}
}

// QualityIssuesFoundEvent is raised when a quality check contains failed or
// flagged lines. The order still progresses; the event lets returns be raised.
type QualityIssuesFoundEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID   `json:"order_id"`
	FailedItems  []uuid.UUID `json:"failed_items"`
	FlaggedItems []uuid.UUID `json:"flagged_items"`
}

// NewQualityIssuesFoundEvent creates a new QualityIssuesFoundEvent
func NewQualityIssuesFoundEvent(plan *QualityPlan) *QualityIssuesFoundEvent {
	e := &QualityIssuesFoundEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQualityIssuesFound, AggregateTypePurchaseOrder, plan.OrderID),
		OrderID:         plan.OrderID,
	}
	for _, r := range plan.Records {
		switch r.Result {
		case QualityFailed:
			e.FailedItems = append(e.FailedItems, r.ItemID)
		case QualityAttention:
			e.FlaggedItems = append(e.FlaggedItems, r.ItemID)
		}
	}
	return e
}

// ReturnRecordedEvent is raised after a return has been persisted
type ReturnRecordedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID    `json:"order_id"`
	ReturnID uuid.UUID    `json:"return_id"`
	ItemID   uuid.UUID    `json:"item_id"`
	Quantity int          `json:"quantity"`
	Reason   ReturnReason `json:"reason"`
}

// NewReturnRecordedEvent creates a new ReturnRecordedEvent
func NewReturnRecordedEvent(r *ReturnRecord) *ReturnRecordedEvent {
	return &ReturnRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRecorded, AggregateTypePurchaseOrder, r.OrderID),
		OrderID:         r.OrderID,
		ReturnID:        r.ID,
		ItemID:          r.ItemID,
		Quantity:        r.Quantity,
		Reason:          r.Reason,
	}
}
