package purchasing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReturnReason explains why received goods go back to the supplier
type ReturnReason string

const (
	ReturnReasonDamage    ReturnReason = "damage"
	ReturnReasonDefect    ReturnReason = "defect"
	ReturnReasonWrongItem ReturnReason = "wrong_item"
	ReturnReasonExcess    ReturnReason = "excess"
	ReturnReasonOther     ReturnReason = "other"
)

// IsValid checks if the reason is a known value
func (r ReturnReason) IsValid() bool {
	switch r {
	case ReturnReasonDamage, ReturnReasonDefect, ReturnReasonWrongItem, ReturnReasonExcess, ReturnReasonOther:
		return true
	}
	return false
}

// ReturnRecord is a quantity of a received line sent back to the supplier
type ReturnRecord struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ItemID    uuid.UUID
	Quantity  int
	Reason    ReturnReason
	Notes     string
	CreatedBy uuid.UUID
	CreatedAt time.Time
}

// ReturnInput is a return as submitted by a user
type ReturnInput struct {
	ItemID   uuid.UUID
	Quantity int
	Reason   ReturnReason
	Notes    string
}

// PlanReturn validates a return. alreadyReturned is the quantity of the line
// returned by earlier records; the total may not exceed what was received.
func PlanReturn(order *PurchaseOrder, in ReturnInput, alreadyReturned int, actorID uuid.UUID, now time.Time) (*ReturnRecord, error) {
	if !order.Status.HasReceipts() {
		return nil, invalidTransition(ActionRecordReturn, order, "partial_received|received|quality_checked|completed")
	}
	if !in.Reason.IsValid() {
		return nil, validationError(ActionRecordReturn, order, fmt.Sprintf("unknown return reason %q", in.Reason))
	}
	item := order.FindItem(in.ItemID)
	if item == nil {
		return nil, invalidQuantity(ActionRecordReturn, order, in.ItemID, "item does not belong to the order")
	}
	if in.Quantity <= 0 {
		return nil, invalidQuantity(ActionRecordReturn, order, in.ItemID, "return quantity must be positive")
	}
	if alreadyReturned+in.Quantity > item.ReceivedQuantity {
		return nil, invalidQuantity(ActionRecordReturn, order, in.ItemID,
			fmt.Sprintf("cannot return %d units, only %d received and %d already returned",
				in.Quantity, item.ReceivedQuantity, alreadyReturned))
	}
	if in.Reason == ReturnReasonOther && strings.TrimSpace(in.Notes) == "" {
		return nil, validationError(ActionRecordReturn, order, "notes are required when the reason is other")
	}

	return &ReturnRecord{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ItemID:    in.ItemID,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		Notes:     in.Notes,
		CreatedBy: actorID,
		CreatedAt: now,
	}, nil
}
