package purchasing

import (
	"context"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderService is the persistence boundary the lifecycle manager runs on.
// Every Persist* call is a single atomic write. When the request carries a
// non-zero ExpectedVersion the implementation must reject it with
// shared.ErrConcurrencyConflict if the stored order has moved on.
type OrderService interface {
	// FetchOrder loads an order with its items in line order.
	// Returns shared.ErrNotFound when the order does not exist.
	FetchOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// PersistStatus stores a status transition and its audit entry
	PersistStatus(ctx context.Context, change *StatusChange) error

	// PersistReceivedQuantities stores the cumulative received quantities of
	// a receipt, the new status, any serial-numbered units and an audit entry
	PersistReceivedQuantities(ctx context.Context, plan *ReceiptPlan) error

	// PersistPayment stores a payment and the order totals it produces
	PersistPayment(ctx context.Context, req *PaymentRequest) error

	// FetchReceivedUnits returns the serial-numbered units booked in for an order
	FetchReceivedUnits(ctx context.Context, orderID uuid.UUID) ([]ReceivedUnit, error)

	// FetchUnitsBySerial returns units of any order whose product is one of
	// productIDs and whose serial number is one of serials. Serial numbers
	// are unique per product across all orders.
	FetchUnitsBySerial(ctx context.Context, productIDs []uuid.UUID, serials []string) ([]ReceivedUnit, error)

	// PersistQualityCheck stores inspection verdicts and the resulting status
	PersistQualityCheck(ctx context.Context, plan *QualityPlan) error

	// PersistReturn stores a return record
	PersistReturn(ctx context.Context, record *ReturnRecord) error

	// CreateOrder inserts a new draft order with its items
	CreateOrder(ctx context.Context, order *PurchaseOrder) error

	// ListOrders returns a page of orders matching the filter
	ListOrders(ctx context.Context, filter OrderFilter) ([]PurchaseOrder, int64, error)

	// ExistsByOrderNumber checks whether an order number is taken
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	FetchPayments(ctx context.Context, orderID uuid.UUID) ([]Payment, error)
	FetchAuditTrail(ctx context.Context, orderID uuid.UUID) ([]AuditEntry, error)
	FetchQualityChecks(ctx context.Context, orderID uuid.UUID) ([]QualityCheckRecord, error)
	FetchReturns(ctx context.Context, orderID uuid.UUID) ([]ReturnRecord, error)
}

// OrderFilter narrows ListOrders
type OrderFilter struct {
	shared.Filter
	Statuses      []Status
	PaymentStatus PaymentStatus
	SupplierID    *uuid.UUID
}
