package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is an identified record. Only aggregate roots (purchase orders)
// carry the full BaseEntity; order lines and ledger records hold plain IDs.
type Entity interface {
	GetID() uuid.UUID
}

// BaseEntity holds the identity and the row timestamps of an aggregate.
// Timestamps are UTC. UpdatedAt never moves behind CreatedAt.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// Touch records a change at the given instant. An older instant, such as
// one from a lagging clock, leaves UpdatedAt as it is.
func (e *BaseEntity) Touch(at time.Time) {
	at = at.UTC()
	if at.After(e.UpdatedAt) {
		e.UpdatedAt = at
	}
}

// NewBaseEntity assigns a fresh ID, created and updated now
func NewBaseEntity() BaseEntity {
	return NewBaseEntityAt(time.Now())
}

// NewBaseEntityAt assigns a fresh ID created at the given instant
func NewBaseEntityAt(at time.Time) BaseEntity {
	at = at.UTC()
	return BaseEntity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at}
}
