package purchasing

import (
	"testing"

	"github.com/erp/purchasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers for PurchaseOrder
func createTestOrder(t *testing.T) *PurchaseOrder {
	order, err := NewPurchaseOrder("PO-2025-001", uuid.New(), "Test Supplier", valueobject.TZS, decimal.Zero)
	require.NoError(t, err)
	return order
}

func addTestItem(t *testing.T, order *PurchaseOrder, quantity int, cost float64) *PurchaseOrderItem {
	item, err := order.AddItem(uuid.New(), uuid.New(), "Test Product", "SKU-001", quantity, decimal.NewFromFloat(cost))
	require.NoError(t, err)
	return item
}

// orderIn returns an order in the given state with one line per quantity
func orderIn(t *testing.T, status Status, payment PaymentStatus, quantities ...int) *PurchaseOrder {
	order := createTestOrder(t)
	for _, q := range quantities {
		addTestItem(t, order, q, 1000)
	}
	order.Status = status
	order.PaymentStatus = payment
	if payment == PaymentStatusPaid {
		order.TotalPaid = order.TotalAmount
	}
	order.ClearDomainEvents()
	return order
}

func TestNewPurchaseOrder(t *testing.T) {
	t.Run("creates draft order with defaults", func(t *testing.T) {
		supplierID := uuid.New()
		order, err := NewPurchaseOrder("  PO-1  ", supplierID, "Acme", "", decimal.Zero)
		require.NoError(t, err)

		assert.Equal(t, "PO-1", order.OrderNumber)
		assert.Equal(t, StatusDraft, order.Status)
		assert.Equal(t, PaymentStatusUnpaid, order.PaymentStatus)
		assert.Equal(t, valueobject.BaseCurrency, order.Currency)
		assert.True(t, order.ExchangeRate.Equal(decimal.NewFromInt(1)))
		assert.Equal(t, 1, order.Version)
		assert.Empty(t, order.Items)
		require.Len(t, order.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeOrderCreated, order.GetDomainEvents()[0].EventType())
	})

	t.Run("keeps exchange rate for foreign currency", func(t *testing.T) {
		order, err := NewPurchaseOrder("PO-2", uuid.New(), "Acme", valueobject.USD, decimal.NewFromInt(2500))
		require.NoError(t, err)
		assert.True(t, order.ExchangeRate.Equal(decimal.NewFromInt(2500)))
	})

	t.Run("rejects empty order number", func(t *testing.T) {
		_, err := NewPurchaseOrder(" ", uuid.New(), "Acme", valueobject.TZS, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects missing supplier", func(t *testing.T) {
		_, err := NewPurchaseOrder("PO-3", uuid.Nil, "Acme", valueobject.TZS, decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects negative exchange rate", func(t *testing.T) {
		_, err := NewPurchaseOrder("PO-4", uuid.New(), "Acme", valueobject.USD, decimal.NewFromInt(-1))
		assert.Error(t, err)
	})
}

func TestPurchaseOrder_AddItem(t *testing.T) {
	t.Run("appends lines in order and recalculates total", func(t *testing.T) {
		order := createTestOrder(t)
		first := addTestItem(t, order, 10, 1500)
		second := addTestItem(t, order, 2, 250.5)

		require.Len(t, order.Items, 2)
		assert.Equal(t, first.ID, order.Items[0].ID)
		assert.Equal(t, second.ID, order.Items[1].ID)
		assert.Equal(t, order.ID, order.Items[0].OrderID)
		assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(15501)))
	})

	t.Run("rejects duplicate product variant", func(t *testing.T) {
		order := createTestOrder(t)
		productID, variantID := uuid.New(), uuid.New()
		_, err := order.AddItem(productID, variantID, "Phone", "P-1", 1, decimal.NewFromInt(1))
		require.NoError(t, err)
		_, err = order.AddItem(productID, variantID, "Phone", "P-1", 1, decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		order := createTestOrder(t)
		_, err := order.AddItem(uuid.New(), uuid.Nil, "Phone", "P-1", 0, decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("rejects changes outside draft", func(t *testing.T) {
		order := orderIn(t, StatusSent, PaymentStatusUnpaid, 1)
		_, err := order.AddItem(uuid.New(), uuid.Nil, "Phone", "P-1", 1, decimal.NewFromInt(1))
		assert.Error(t, err)
	})
}

func TestPurchaseOrderItem_Derived(t *testing.T) {
	item := PurchaseOrderItem{Quantity: 8, ReceivedQuantity: 2, CostPrice: decimal.NewFromFloat(12.5)}

	assert.True(t, item.LineTotal().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 6, item.RemainingQuantity())
	assert.False(t, item.IsFullyReceived())
	assert.Equal(t, "25", item.ReceivedPercentage().String())
	assert.True(t, item.BaseUnitCost(decimal.NewFromInt(2)).Equal(decimal.NewFromInt(25)))
	assert.True(t, item.BaseUnitCost(decimal.NewFromInt(1)).Equal(item.CostPrice))

	empty := PurchaseOrderItem{}
	assert.True(t, empty.ReceivedPercentage().IsZero())
}

func TestPurchaseOrder_Progress(t *testing.T) {
	order := orderIn(t, StatusSent, PaymentStatusPaid, 10, 30)
	order.Items[0].ReceivedQuantity = 10
	order.Items[1].ReceivedQuantity = 10

	assert.Equal(t, 40, order.TotalOrderedQuantity())
	assert.Equal(t, 20, order.TotalReceivedQuantity())
	assert.Equal(t, "50", order.ReceiveProgress().String())
	assert.False(t, order.IsFullyReceived())

	order.Items[1].ReceivedQuantity = 30
	assert.True(t, order.IsFullyReceived())
}

func TestPurchaseOrder_Amounts(t *testing.T) {
	order, err := NewPurchaseOrder("PO-USD", uuid.New(), "Acme", valueobject.USD, decimal.NewFromInt(2500))
	require.NoError(t, err)
	addTestItem(t, order, 4, 10)

	assert.True(t, order.TotalAmountBaseCurrency().Equal(decimal.NewFromInt(100000)))
	order.TotalPaid = decimal.NewFromInt(15)
	assert.True(t, order.OutstandingAmount().Equal(decimal.NewFromInt(25)))
	order.TotalPaid = decimal.NewFromInt(50)
	assert.True(t, order.OutstandingAmount().IsZero())
}

func TestPurchaseOrder_Clone(t *testing.T) {
	order := orderIn(t, StatusSent, PaymentStatusPaid, 5)
	clone := order.Clone()
	clone.Items[0].ReceivedQuantity = 5
	clone.Status = StatusReceived

	assert.Equal(t, 0, order.Items[0].ReceivedQuantity)
	assert.Equal(t, StatusSent, order.Status)
	assert.Equal(t, order.ID, clone.ID)
	assert.Equal(t, order.Version, clone.Version)
}
