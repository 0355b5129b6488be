package purchasing

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry records one persisted lifecycle action
type AuditEntry struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Action     Action
	FromStatus Status
	ToStatus   Status
	ActorID    uuid.UUID
	Details    string
	CreatedAt  time.Time
}

// NewAuditEntry creates an audit entry stamped with the current time
func NewAuditEntry(orderID uuid.UUID, action Action, from, to Status, actorID uuid.UUID, details string) AuditEntry {
	return AuditEntry{
		ID:         uuid.New(),
		OrderID:    orderID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
}
