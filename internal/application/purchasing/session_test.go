package purchasing

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderSession_FullLifecycle(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderService)
	svc := newTestService(orders)

	draft := testOrder(t, purchasing.StatusDraft, purchasing.PaymentStatusUnpaid, 10)
	itemID := draft.Items[0].ID
	pending := after(draft, func(o *purchasing.PurchaseOrder) { o.Status = purchasing.StatusPendingApproval })
	approved := after(pending, func(o *purchasing.PurchaseOrder) { o.Status = purchasing.StatusApproved })
	sent := after(approved, func(o *purchasing.PurchaseOrder) { o.Status = purchasing.StatusSent })
	paid := after(sent, func(o *purchasing.PurchaseOrder) {
		o.PaymentStatus = purchasing.PaymentStatusPaid
		o.TotalPaid = o.TotalAmount
	})
	partial := after(paid, func(o *purchasing.PurchaseOrder) {
		o.Status = purchasing.StatusPartialReceived
		o.Items[0].ReceivedQuantity = 4
	})
	received := after(partial, func(o *purchasing.PurchaseOrder) {
		o.Status = purchasing.StatusReceived
		o.Items[0].ReceivedQuantity = 10
	})

	for _, snapshot := range []*purchasing.PurchaseOrder{draft, pending, approved, sent, paid, partial, received} {
		orders.On("FetchOrder", mock.Anything, draft.ID).Return(snapshot, nil).Once()
	}
	orders.On("PersistStatus", mock.Anything, mock.Anything).Return(nil).Times(3)
	orders.On("PersistPayment", mock.Anything, mock.Anything).Return(nil).Once()
	orders.On("PersistReceivedQuantities", mock.Anything, mock.Anything).Return(nil).Twice()

	sess, err := svc.OpenSession(ctx, draft.ID, uuid.New())
	require.NoError(t, err)

	require.NoError(t, sess.SubmitForApproval(ctx))
	require.NoError(t, sess.Approve(ctx, ""))
	require.NoError(t, sess.SendToSupplier(ctx))

	err = sess.PartialReceive(ctx, []ReceiveLineInput{{ItemID: itemID, ReceivedQuantity: 4}})
	assert.ErrorIs(t, err, purchasing.ErrPaymentRequired)
	assert.Equal(t, purchasing.StatusSent, sess.Order().Status)

	require.NoError(t, sess.MakePayment(ctx, PaymentRequestInput{Method: "bank_transfer", Amount: decimal.NewFromInt(10000)}))
	require.NoError(t, sess.PartialReceive(ctx, []ReceiveLineInput{{ItemID: itemID, ReceivedQuantity: 4}}))
	assert.Equal(t, purchasing.StatusPartialReceived, sess.Order().Status)

	require.NoError(t, sess.PartialReceive(ctx, []ReceiveLineInput{{ItemID: itemID, ReceivedQuantity: 10}}))
	assert.Equal(t, purchasing.StatusReceived, sess.Order().Status)
	assert.Equal(t, 10, sess.Order().Items[0].ReceivedQuantity)

	orders.AssertExpectations(t)
}

func TestOrderSession_FailedWriteKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderService)
	svc := newTestService(orders)

	order := testOrder(t, purchasing.StatusSent, purchasing.PaymentStatusPaid, 10)
	orders.On("FetchOrder", mock.Anything, order.ID).Return(order, nil).Once()
	orders.On("PersistReceivedQuantities", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	sess, err := svc.OpenSession(ctx, order.ID, uuid.New())
	require.NoError(t, err)

	err = sess.PartialReceive(ctx, []ReceiveLineInput{{ItemID: order.Items[0].ID, ReceivedQuantity: 4}})
	require.Error(t, err)
	assert.ErrorIs(t, err, purchasing.ErrServiceUnreachable)

	snapshot := sess.Order()
	assert.Equal(t, purchasing.StatusSent, snapshot.Status)
	assert.Equal(t, 0, snapshot.Items[0].ReceivedQuantity)
	orders.AssertNumberOfCalls(t, "FetchOrder", 1)
}

func TestOrderSession_OrderReturnsCopy(t *testing.T) {
	orders := new(MockOrderService)
	svc := newTestService(orders)

	order := testOrder(t, purchasing.StatusDraft, purchasing.PaymentStatusUnpaid, 3)
	orders.On("FetchOrder", mock.Anything, order.ID).Return(order, nil).Once()

	sess, err := svc.OpenSession(context.Background(), order.ID, uuid.New())
	require.NoError(t, err)

	snapshot := sess.Order()
	snapshot.Status = purchasing.StatusCompleted
	snapshot.Items[0].ReceivedQuantity = 3

	again := sess.Order()
	assert.Equal(t, purchasing.StatusDraft, again.Status)
	assert.Equal(t, 0, again.Items[0].ReceivedQuantity)
}

func TestOrderSession_Reload(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderService)
	svc := newTestService(orders)

	order := testOrder(t, purchasing.StatusSent, purchasing.PaymentStatusUnpaid, 3)
	moved := after(order, func(o *purchasing.PurchaseOrder) { o.Status = purchasing.StatusConfirmed })
	expectLoad(orders, order, moved)

	sess, err := svc.OpenSession(ctx, order.ID, uuid.New())
	require.NoError(t, err)
	require.NoError(t, sess.Reload(ctx))

	assert.Equal(t, purchasing.StatusConfirmed, sess.Order().Status)
	assert.Equal(t, moved.Version, sess.Order().Version)
}

func TestOrderSession_ReloadFailureAfterCommit(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderService)
	svc := newTestService(orders)

	order := testOrder(t, purchasing.StatusSent, purchasing.PaymentStatusPaid, 10)
	orders.On("FetchOrder", mock.Anything, order.ID).Return(order, nil).Once()
	orders.On("PersistReceivedQuantities", mock.Anything, mock.Anything).Return(nil).Once()
	orders.On("FetchOrder", mock.Anything, order.ID).Return(nil, errors.New("connection reset")).Once()

	resp, err := svc.PartialReceive(ctx, order.ID, Command{ActorID: uuid.New()},
		[]ReceiveLineInput{{ItemID: order.Items[0].ID, ReceivedQuantity: 4}})
	require.Error(t, err)
	assert.Nil(t, resp)

	var lerr *purchasing.LifecycleError
	require.ErrorAs(t, err, &lerr)
	assert.True(t, lerr.Committed)
	assert.Equal(t, purchasing.ActionPartialReceive, lerr.Action)
	assert.Equal(t, purchasing.KindServiceUnreachable, lerr.Kind)
	assert.Contains(t, err.Error(), "partial_receive rejected")
	assert.Contains(t, err.Error(), "saved")
	assert.Contains(t, err.Error(), "connection reset")
	orders.AssertExpectations(t)
}
