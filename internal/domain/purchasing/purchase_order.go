package purchasing

import (
	"strings"
	"time"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItem represents a line item in a purchase order
type PurchaseOrderItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ProductID        uuid.UUID
	VariantID        uuid.UUID
	ProductName      string
	SKU              string
	Quantity         int
	ReceivedQuantity int
	CostPrice        decimal.Decimal // per unit, in the order currency
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPurchaseOrderItem creates a new purchase order item
func NewPurchaseOrderItem(orderID, productID, variantID uuid.UUID, productName, sku string, quantity int, costPrice decimal.Decimal) (*PurchaseOrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if costPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Cost price cannot be negative")
	}

	now := time.Now()
	return &PurchaseOrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		VariantID:   variantID,
		ProductName: strings.TrimSpace(productName),
		SKU:         strings.TrimSpace(sku),
		Quantity:    quantity,
		CostPrice:   costPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// LineTotal returns Quantity * CostPrice
func (i *PurchaseOrderItem) LineTotal() decimal.Decimal {
	return i.CostPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RemainingQuantity returns how many units are still expected
func (i *PurchaseOrderItem) RemainingQuantity() int {
	remaining := i.Quantity - i.ReceivedQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFullyReceived returns true when every ordered unit has arrived
func (i *PurchaseOrderItem) IsFullyReceived() bool {
	return i.ReceivedQuantity >= i.Quantity
}

// ReceivedPercentage returns received/ordered as a percentage, 0 for an empty line
func (i *PurchaseOrderItem) ReceivedPercentage() decimal.Decimal {
	if i.Quantity == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(i.ReceivedQuantity)).
		Div(decimal.NewFromInt(int64(i.Quantity))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// BaseUnitCost returns the unit cost in the base currency
func (i *PurchaseOrderItem) BaseUnitCost(exchangeRate decimal.Decimal) decimal.Decimal {
	return valueobject.ToBaseAmount(i.CostPrice, exchangeRate)
}

// PurchaseOrder is the aggregate root for purchase orders
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber          string
	SupplierID           uuid.UUID
	SupplierName         string
	Status               Status
	PaymentStatus        PaymentStatus
	Currency             valueobject.Currency
	ExchangeRate         decimal.Decimal // base currency units per one order currency unit
	TotalAmount          decimal.Decimal
	TotalPaid            decimal.Decimal
	Items                []PurchaseOrderItem
	ExpectedDeliveryDate *time.Time
	ReceivedDate         *time.Time
	ApprovedBy           *uuid.UUID
	ApprovedAt           *time.Time
	RejectionReason      string
	CancelReason         string
	Notes                string
	CreatedBy            *uuid.UUID
}

// NewPurchaseOrder creates a new draft purchase order
func NewPurchaseOrder(orderNumber string, supplierID uuid.UUID, supplierName string, currency valueobject.Currency, exchangeRate decimal.Decimal) (*PurchaseOrder, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if currency == "" {
		currency = valueobject.BaseCurrency
	}
	if exchangeRate.IsZero() || currency == valueobject.BaseCurrency {
		exchangeRate = decimal.NewFromInt(1)
	}
	if exchangeRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_EXCHANGE_RATE", "Exchange rate must be positive")
	}

	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		SupplierName:      strings.TrimSpace(supplierName),
		Status:            StatusDraft,
		PaymentStatus:     PaymentStatusUnpaid,
		Currency:          currency,
		ExchangeRate:      exchangeRate,
		TotalAmount:       decimal.Zero,
		TotalPaid:         decimal.Zero,
		Items:             make([]PurchaseOrderItem, 0),
	}
	order.AddDomainEvent(NewOrderCreatedEvent(order))
	return order, nil
}

// AddItem appends a line to a draft order. Line order is preserved.
func (o *PurchaseOrder) AddItem(productID, variantID uuid.UUID, productName, sku string, quantity int, costPrice decimal.Decimal) (*PurchaseOrderItem, error) {
	if o.Status != StatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Items can only be added to draft orders")
	}
	for _, existing := range o.Items {
		if existing.ProductID == productID && existing.VariantID == variantID {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "Product variant already exists in order")
		}
	}

	item, err := NewPurchaseOrderItem(o.ID, productID, variantID, productName, sku, quantity, costPrice)
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	return item, nil
}

// SetExpectedDeliveryDate sets when the supplier is expected to deliver
func (o *PurchaseOrder) SetExpectedDeliveryDate(date *time.Time) {
	o.ExpectedDeliveryDate = date
}

// SetNotes sets the free-text notes of the order
func (o *PurchaseOrder) SetNotes(notes string) {
	o.Notes = notes
}

// SetCreatedBy records the user who created the order
func (o *PurchaseOrder) SetCreatedBy(userID uuid.UUID) {
	o.CreatedBy = &userID
}

func (o *PurchaseOrder) recalculateTotals() {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].LineTotal())
	}
	o.TotalAmount = total
	o.Touch(time.Now())
}

// TotalAmountBaseCurrency returns TotalAmount converted at ExchangeRate
func (o *PurchaseOrder) TotalAmountBaseCurrency() decimal.Decimal {
	return valueobject.ToBaseAmount(o.TotalAmount, o.ExchangeRate)
}

// OutstandingAmount returns how much of TotalAmount is not yet paid
func (o *PurchaseOrder) OutstandingAmount() decimal.Decimal {
	outstanding := o.TotalAmount.Sub(o.TotalPaid)
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return outstanding
}

// ItemCount returns the number of lines
func (o *PurchaseOrder) ItemCount() int {
	return len(o.Items)
}

// FindItem returns the line with the given ID
func (o *PurchaseOrder) FindItem(itemID uuid.UUID) *PurchaseOrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// IsFullyReceived returns true when every line has been fully received
func (o *PurchaseOrder) IsFullyReceived() bool {
	if len(o.Items) == 0 {
		return false
	}
	for i := range o.Items {
		if !o.Items[i].IsFullyReceived() {
			return false
		}
	}
	return true
}

// TotalOrderedQuantity returns the sum of ordered quantities
func (o *PurchaseOrder) TotalOrderedQuantity() int {
	total := 0
	for i := range o.Items {
		total += o.Items[i].Quantity
	}
	return total
}

// TotalReceivedQuantity returns the sum of received quantities
func (o *PurchaseOrder) TotalReceivedQuantity() int {
	total := 0
	for i := range o.Items {
		total += o.Items[i].ReceivedQuantity
	}
	return total
}

// ReceiveProgress returns the overall receive percentage
func (o *PurchaseOrder) ReceiveProgress() decimal.Decimal {
	ordered := o.TotalOrderedQuantity()
	if ordered == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(o.TotalReceivedQuantity())).
		Div(decimal.NewFromInt(int64(ordered))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// Clone returns a deep copy of the order. Pending domain events are not copied.
func (o *PurchaseOrder) Clone() *PurchaseOrder {
	c := *o
	c.BaseAggregateRoot = shared.BaseAggregateRoot{
		BaseEntity: o.BaseEntity,
		Version:    o.Version,
	}
	c.Items = make([]PurchaseOrderItem, len(o.Items))
	copy(c.Items, o.Items)
	return &c
}
