package purchasing

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/purchasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the supplier was paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodCredit       PaymentMethod = "credit"
)

// IsValid checks if the payment method is a known value
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodMobileMoney,
		PaymentMethodCard, PaymentMethodCheque, PaymentMethodCredit:
		return true
	}
	return false
}

// PaymentRecordStatus is the settlement state of a single payment
type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
)

// IsValid checks if the payment record status is a known value
func (s PaymentRecordStatus) IsValid() bool {
	switch s {
	case PaymentRecordPending, PaymentRecordCompleted, PaymentRecordFailed:
		return true
	}
	return false
}

// Payment is one payment made to the supplier against an order
type Payment struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	Method  PaymentMethod
	// Amount is in Currency; OrderAmount is the same value in the order currency
	Amount       decimal.Decimal
	Currency     valueobject.Currency
	ExchangeRate decimal.Decimal
	OrderAmount  decimal.Decimal
	Status       PaymentRecordStatus
	Reference    string
	Notes        string
	PaidBy       uuid.UUID
	PaidAt       time.Time
}

// PaymentInput is a payment as submitted by a user
type PaymentInput struct {
	Method   PaymentMethod
	Amount   decimal.Decimal
	Currency valueobject.Currency
	// ExchangeRate converts Currency to the order currency. Ignored when
	// both currencies are the same.
	ExchangeRate decimal.Decimal
	Status       PaymentRecordStatus
	Reference    string
	Notes        string
}

// PaymentRequest is a validated payment ready for persistence together with
// the order totals it produces
type PaymentRequest struct {
	Payment          Payment
	From             PaymentStatus
	NewTotalPaid     decimal.Decimal
	NewPaymentStatus PaymentStatus
	ExpectedVersion  int
}

// DerivePaymentStatus computes the aggregate payment status of an order
func DerivePaymentStatus(totalPaid, totalAmount decimal.Decimal) PaymentStatus {
	switch {
	case !totalPaid.IsPositive():
		return PaymentStatusUnpaid
	case totalPaid.GreaterThanOrEqual(totalAmount):
		return PaymentStatusPaid
	default:
		return PaymentStatusPartial
	}
}

// PlanPayment validates a payment against the order. Only completed payments
// count toward TotalPaid; pending and failed ones are recorded as-is.
func PlanPayment(order *PurchaseOrder, in PaymentInput, actorID uuid.UUID, now time.Time) (*PaymentRequest, error) {
	if _, err := Resolve(order, ActionMakePayment); err != nil {
		return nil, err
	}
	if !in.Method.IsValid() {
		return nil, validationError(ActionMakePayment, order, fmt.Sprintf("unknown payment method %q", in.Method))
	}
	if !in.Amount.IsPositive() {
		return nil, validationError(ActionMakePayment, order, "payment amount must be positive")
	}
	status := in.Status
	if status == "" {
		status = PaymentRecordCompleted
	}
	if !status.IsValid() {
		return nil, validationError(ActionMakePayment, order, fmt.Sprintf("unknown payment status %q", in.Status))
	}
	currency := in.Currency
	if currency == "" {
		currency = order.Currency
	}

	rate := decimal.NewFromInt(1)
	if currency != order.Currency {
		if !in.ExchangeRate.IsPositive() {
			return nil, validationError(ActionMakePayment, order,
				fmt.Sprintf("exchange rate from %s to %s is required", currency, order.Currency))
		}
		rate = in.ExchangeRate
	}
	orderAmount := in.Amount.Mul(rate).Round(2)

	newTotal := order.TotalPaid
	if status == PaymentRecordCompleted {
		if orderAmount.GreaterThan(order.OutstandingAmount().Round(2)) {
			return nil, validationError(ActionMakePayment, order,
				fmt.Sprintf("payment of %s exceeds the outstanding %s",
					valueobject.FormatCurrency(orderAmount, order.Currency),
					valueobject.FormatCurrency(order.OutstandingAmount(), order.Currency)))
		}
		newTotal = newTotal.Add(orderAmount)
	}

	return &PaymentRequest{
		Payment: Payment{
			ID:           uuid.New(),
			OrderID:      order.ID,
			Method:       in.Method,
			Amount:       in.Amount,
			Currency:     currency,
			ExchangeRate: rate,
			OrderAmount:  orderAmount,
			Status:       status,
			Reference:    strings.TrimSpace(in.Reference),
			Notes:        in.Notes,
			PaidBy:       actorID,
			PaidAt:       now,
		},
		From:             order.PaymentStatus,
		NewTotalPaid:     newTotal,
		NewPaymentStatus: DerivePaymentStatus(newTotal, order.TotalAmount),
		ExpectedVersion:  order.Version,
	}, nil
}
