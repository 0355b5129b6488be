package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOrderService is a mock implementation of purchasing.OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) FetchOrder(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchasing.PurchaseOrder), args.Error(1)
}

func (m *MockOrderService) PersistStatus(ctx context.Context, change *purchasing.StatusChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockOrderService) PersistReceivedQuantities(ctx context.Context, plan *purchasing.ReceiptPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockOrderService) PersistPayment(ctx context.Context, req *purchasing.PaymentRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockOrderService) FetchReceivedUnits(ctx context.Context, orderID uuid.UUID) ([]purchasing.ReceivedUnit, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]purchasing.ReceivedUnit), args.Error(1)
}

func (m *MockOrderService) FetchUnitsBySerial(ctx context.Context, productIDs []uuid.UUID, serials []string) ([]purchasing.ReceivedUnit, error) {
	args := m.Called(ctx, productIDs, serials)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]purchasing.ReceivedUnit), args.Error(1)
}

func (m *MockOrderService) PersistQualityCheck(ctx context.Context, plan *purchasing.QualityPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockOrderService) PersistReturn(ctx context.Context, record *purchasing.ReturnRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, order *purchasing.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter purchasing.OrderFilter) ([]purchasing.PurchaseOrder, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]purchasing.PurchaseOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	args := m.Called(ctx, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderService) FetchPayments(ctx context.Context, orderID uuid.UUID) ([]purchasing.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]purchasing.Payment), args.Error(1)
}

func (m *MockOrderService) FetchAuditTrail(ctx context.Context, orderID uuid.UUID) ([]purchasing.AuditEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]purchasing.AuditEntry), args.Error(1)
}

func (m *MockOrderService) FetchQualityChecks(ctx context.Context, orderID uuid.UUID) ([]purchasing.QualityCheckRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]purchasing.QualityCheckRecord), args.Error(1)
}

func (m *MockOrderService) FetchReturns(ctx context.Context, orderID uuid.UUID) ([]purchasing.ReturnRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]purchasing.ReturnRecord), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestService(orders *MockOrderService) *LifecycleService {
	svc := NewLifecycleService(orders, LifecycleConfig{ServiceTimeout: time.Second})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

// testOrder builds an order in the given state with one line per quantity,
// each line costing 1000 TZS per unit
func testOrder(t *testing.T, status purchasing.Status, payment purchasing.PaymentStatus, quantities ...int) *purchasing.PurchaseOrder {
	t.Helper()
	order, err := purchasing.NewPurchaseOrder("PO-2025-0042", uuid.New(), "Kariakoo Traders", valueobject.TZS, decimal.Zero)
	require.NoError(t, err)
	for i, q := range quantities {
		_, err := order.AddItem(uuid.New(), uuid.New(), "Router", "SKU-"+string(rune('A'+i)), q, decimal.NewFromInt(1000))
		require.NoError(t, err)
	}
	order.Status = status
	order.PaymentStatus = payment
	if payment == purchasing.PaymentStatusPaid {
		order.TotalPaid = order.TotalAmount
	}
	order.ClearDomainEvents()
	return order
}

// after returns the stored state following a successful write
func after(order *purchasing.PurchaseOrder, mutate func(o *purchasing.PurchaseOrder)) *purchasing.PurchaseOrder {
	next := order.Clone()
	next.Version++
	mutate(next)
	return next
}

// expectLoad queues the snapshot load and the reload that follows a write
func expectLoad(orders *MockOrderService, first, reloaded *purchasing.PurchaseOrder) {
	orders.On("FetchOrder", mock.Anything, first.ID).Return(first, nil).Once()
	if reloaded != nil {
		orders.On("FetchOrder", mock.Anything, first.ID).Return(reloaded, nil).Once()
	}
}
