package purchasing

import (
	"strings"

	"github.com/google/uuid"
)

// StatusChange is a validated status-only transition ready for persistence
type StatusChange struct {
	OrderID         uuid.UUID
	Action          Action
	From            Status
	To              Status
	ActorID         uuid.UUID
	Note            string
	ExpectedVersion int
}

// PlanStatusChange resolves a transition whose target status is fixed by the
// lifecycle table (submit, approve, reject, send, confirm, ship, cancel,
// complete). Actions whose outcome is computed have their own planners.
func PlanStatusChange(order *PurchaseOrder, action Action, actorID uuid.UUID, note string) (*StatusChange, error) {
	t, err := Resolve(order, action)
	if err != nil {
		return nil, err
	}
	if t.To == "" {
		return nil, validationError(action, order, "action does not have a fixed target status")
	}
	note = strings.TrimSpace(note)
	if action == ActionReject && note == "" {
		return nil, validationError(action, order, "a rejection reason is required")
	}
	return &StatusChange{
		OrderID:         order.ID,
		Action:          action,
		From:            order.Status,
		To:              t.To,
		ActorID:         actorID,
		Note:            note,
		ExpectedVersion: order.Version,
	}, nil
}
