package purchasing

// CanReceive reports whether stock may be booked in for the order.
// Receiving requires the order to be paid in full.
func CanReceive(order *PurchaseOrder) bool {
	return order.PaymentStatus == PaymentStatusPaid
}

// CanCancel reports whether the order may still be cancelled.
// A paid order can no longer be cancelled.
func CanCancel(order *PurchaseOrder) bool {
	return order.PaymentStatus != PaymentStatusPaid
}

// CheckCanReceive returns a PaymentRequired error carrying the current
// payment status when CanReceive is false
func CheckCanReceive(order *PurchaseOrder, action Action) error {
	if CanReceive(order) {
		return nil
	}
	e := newError(KindPaymentRequired, action, order, "order must be paid in full before receiving")
	e.Required = string(PaymentStatusPaid)
	return e
}

// CheckCanCancel returns an InvalidTransition error when the order is paid
func CheckCanCancel(order *PurchaseOrder, action Action) error {
	if CanCancel(order) {
		return nil
	}
	e := invalidTransition(action, order, "payment status unpaid|partial")
	e.Reason = "paid orders cannot be cancelled"
	return e
}
