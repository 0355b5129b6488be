package handler

import (
	"context"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPurchaseOrderService implements PurchaseOrderService for testing
type MockPurchaseOrderService struct {
	mock.Mock
}

func orderOrNil(args mock.Arguments) (*purchasingapp.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchasingapp.OrderResponse), args.Error(1)
}

func (m *MockPurchaseOrderService) CreateOrder(ctx context.Context, req purchasingapp.CreateOrderRequest) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, req))
}

func (m *MockPurchaseOrderService) GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*purchasingapp.OrderDetailResponse, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchasingapp.OrderDetailResponse), args.Error(1)
}

func (m *MockPurchaseOrderService) ListOrders(ctx context.Context, filter purchasingapp.ListOrdersFilter) ([]purchasingapp.OrderListItemResponse, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]purchasingapp.OrderListItemResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseOrderService) ReceiveSummary(ctx context.Context, orderID uuid.UUID, stock []purchasingapp.StockPosition) (*purchasingapp.ReceiveSummaryResponse, error) {
	args := m.Called(ctx, orderID, stock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchasingapp.ReceiveSummaryResponse), args.Error(1)
}

func (m *MockPurchaseOrderService) SubmitForApproval(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd))
}

func (m *MockPurchaseOrderService) Approve(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, notes string) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd, notes))
}

func (m *MockPurchaseOrderService) ApproveDirect(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, notes string) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd, notes))
}

func (m *MockPurchaseOrderService) Reject(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, reason string) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd, reason))
}

func (m *MockPurchaseOrderService) SendToSupplier(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd))
}

func (m *MockPurchaseOrderService) Confirm(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd))
}

func (m *MockPurchaseOrderService) MarkShipped(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd))
}

func (m *MockPurchaseOrderService) MakePayment(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, req purchasingapp.PaymentRequestInput) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd, req))
}

func (m *MockPurchaseOrderService) Receive(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd))
}

func (m *MockPurchaseOrderService) PartialReceive(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, lines []purchasingapp.ReceiveLineInput) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd, lines))
}

func (m *MockPurchaseOrderService) SerialNumberReceive(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, assignments []purchasingapp.SerialAssignmentInput) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd, assignments))
}

func (m *MockPurchaseOrderService) CompleteQualityCheck(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, checks []purchasingapp.QualityCheckLineInput) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd, checks))
}

func (m *MockPurchaseOrderService) CompleteOrder(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd))
}

func (m *MockPurchaseOrderService) Cancel(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, reason string) (*purchasingapp.OrderResponse, error) {
	return orderOrNil(m.Called(ctx, orderID, cmd, reason))
}

func (m *MockPurchaseOrderService) RecordReturn(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, in purchasingapp.ReturnInput) (*purchasingapp.ReturnResponse, error) {
	args := m.Called(ctx, orderID, cmd, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchasingapp.ReturnResponse), args.Error(1)
}
