package persistence

import (
	"context"
	"testing"
	"time"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createOrderFor stores a one-line order for a given product
func createOrderFor(t *testing.T, svc *GormOrderService, number string, productID uuid.UUID, quantity int) *purchasing.PurchaseOrder {
	t.Helper()
	order := newDraft(t, number)
	_, err := order.AddItem(productID, uuid.Nil, "Handheld scanner", "SCN-100", quantity, decimal.NewFromInt(45000))
	require.NoError(t, err)
	require.NoError(t, svc.CreateOrder(context.Background(), order))
	return order
}

func serialReceive(itemID uuid.UUID, serials ...string) []purchasingapp.SerialAssignmentInput {
	units := make([]purchasingapp.SerialUnitInput, len(serials))
	for i, s := range serials {
		units[i] = purchasingapp.SerialUnitInput{SerialNumber: s}
	}
	return []purchasingapp.SerialAssignmentInput{{ItemID: itemID, Quantity: len(serials), Units: units}}
}

func TestGormOrderService_FetchUnitsBySerial(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestOrderService(t)
	productID := uuid.New()
	order := createOrderFor(t, svc, "PO-2025-0040", productID, 3)
	moveTo(t, db, order.ID, purchasing.StatusSent, purchasing.PaymentStatusPaid)
	item := order.Items[0]

	require.NoError(t, svc.PersistReceivedQuantities(ctx, &purchasing.ReceiptPlan{
		OrderID: order.ID, Action: purchasing.ActionSerialReceive,
		From: purchasing.StatusSent, To: purchasing.StatusPartialReceived,
		Lines: []purchasing.ReceiptLine{{ItemID: item.ID, ReceivedQuantity: 1}},
		Units: []purchasing.ReceivedUnit{
			{ID: uuid.New(), OrderID: order.ID, ItemID: item.ID, ProductID: productID, SerialNumber: "SN-100", Status: purchasing.UnitStatusAvailable, ReceivedAt: serviceNow},
		},
		UnitsReceived: 1,
	}))

	t.Run("matches product and serial", func(t *testing.T) {
		units, err := svc.FetchUnitsBySerial(ctx, []uuid.UUID{productID}, []string{"SN-100", "SN-999"})
		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, order.ID, units[0].OrderID)
		assert.Equal(t, "SN-100", units[0].SerialNumber)
	})

	t.Run("other product does not match", func(t *testing.T) {
		units, err := svc.FetchUnitsBySerial(ctx, []uuid.UUID{uuid.New()}, []string{"SN-100"})
		require.NoError(t, err)
		assert.Empty(t, units)
	})

	t.Run("empty lookup skips the query", func(t *testing.T) {
		units, err := svc.FetchUnitsBySerial(ctx, nil, []string{"SN-100"})
		require.NoError(t, err)
		assert.Nil(t, units)
	})
}

func TestSerialReceive_SerialTakenOnAnotherOrder(t *testing.T) {
	ctx := context.Background()
	store, db := newTestOrderService(t)
	lifecycle := purchasingapp.NewLifecycleService(store, purchasingapp.LifecycleConfig{ServiceTimeout: time.Second})

	productID := uuid.New()
	first := createOrderFor(t, store, "PO-2025-0050", productID, 2)
	second := createOrderFor(t, store, "PO-2025-0051", productID, 2)
	moveTo(t, db, first.ID, purchasing.StatusSent, purchasing.PaymentStatusPaid)
	moveTo(t, db, second.ID, purchasing.StatusSent, purchasing.PaymentStatusPaid)

	_, err := lifecycle.SerialNumberReceive(ctx, first.ID, purchasingapp.Command{ActorID: uuid.New()},
		serialReceive(first.Items[0].ID, "SN-1"))
	require.NoError(t, err)

	t.Run("lookup refuses before the insert", func(t *testing.T) {
		_, err := lifecycle.SerialNumberReceive(ctx, second.ID, purchasingapp.Command{ActorID: uuid.New()},
			serialReceive(second.Items[0].ID, " sn-1 "))
		require.Error(t, err)
		assert.ErrorIs(t, err, purchasing.ErrSerialCountMismatch)
		assert.NotErrorIs(t, err, purchasing.ErrServiceUnreachable)

		got, err := store.FetchOrder(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, purchasing.StatusSent, got.Status)
		assert.Equal(t, 0, got.Items[0].ReceivedQuantity)
	})

	t.Run("store rejects the duplicate on a direct insert", func(t *testing.T) {
		item := second.Items[0]
		err := store.PersistReceivedQuantities(ctx, &purchasing.ReceiptPlan{
			OrderID: second.ID, Action: purchasing.ActionSerialReceive,
			From: purchasing.StatusSent, To: purchasing.StatusPartialReceived,
			Lines: []purchasing.ReceiptLine{{ItemID: item.ID, ReceivedQuantity: 1}},
			Units: []purchasing.ReceivedUnit{
				{ID: uuid.New(), OrderID: second.ID, ItemID: item.ID, ProductID: productID, SerialNumber: "SN-1", Status: purchasing.UnitStatusAvailable, ReceivedAt: serviceNow},
			},
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("fresh serial on the same product is accepted", func(t *testing.T) {
		resp, err := lifecycle.SerialNumberReceive(ctx, second.ID, purchasingapp.Command{ActorID: uuid.New()},
			serialReceive(second.Items[0].ID, "SN-2"))
		require.NoError(t, err)
		assert.Equal(t, string(purchasing.StatusPartialReceived), resp.Status)
	})
}
