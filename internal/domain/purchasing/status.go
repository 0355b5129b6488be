package purchasing

// Status represents the lifecycle status of a purchase order
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusSent            Status = "sent"
	StatusConfirmed       Status = "confirmed"
	StatusShipping        Status = "shipping"
	StatusShipped         Status = "shipped"
	StatusPartialReceived Status = "partial_received"
	StatusReceived        Status = "received"
	StatusQualityChecked  Status = "quality_checked"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

var allStatuses = []Status{
	StatusDraft,
	StatusPendingApproval,
	StatusApproved,
	StatusSent,
	StatusConfirmed,
	StatusShipping,
	StatusShipped,
	StatusPartialReceived,
	StatusReceived,
	StatusQualityChecked,
	StatusCompleted,
	StatusCancelled,
}

// AllStatuses returns every status in lifecycle order
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can leave the status
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsInTransit reports whether goods are on their way from the supplier
func (s Status) IsInTransit() bool {
	return s == StatusShipping || s == StatusShipped
}

// HasReceipts reports whether any stock may have been booked in for the order
func (s Status) HasReceipts() bool {
	switch s {
	case StatusPartialReceived, StatusReceived, StatusQualityChecked, StatusCompleted:
		return true
	}
	return false
}

// PaymentStatus represents the aggregate payment state of an order
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// IsValid checks if the payment status is a known value
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of the payment status
func (p PaymentStatus) String() string {
	return string(p)
}
