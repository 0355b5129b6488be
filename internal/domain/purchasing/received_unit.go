package purchasing

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnitStatus is the inventory status of a serial-numbered unit
type UnitStatus string

const (
	UnitStatusAvailable UnitStatus = "available"
	UnitStatusSold      UnitStatus = "sold"
	UnitStatusReserved  UnitStatus = "reserved"
	UnitStatusDamaged   UnitStatus = "damaged"
)

// IsValid checks if the unit status is a known value
func (s UnitStatus) IsValid() bool {
	switch s {
	case UnitStatusAvailable, UnitStatusSold, UnitStatusReserved, UnitStatusDamaged:
		return true
	}
	return false
}

// ReceivedUnit is one physical, serial-numbered unit booked in against an order line
type ReceivedUnit struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ItemID       uuid.UUID
	ProductID    uuid.UUID
	VariantID    uuid.UUID
	SerialNumber string
	IMEI         string
	MACAddress   string
	Barcode      string
	Status       UnitStatus
	Location     string
	Shelf        string
	Bin          string
	Notes        string
	ReceivedBy   uuid.UUID
	ReceivedAt   time.Time
}

// UnitInput carries the identifiers captured for a unit at the receiving desk
type UnitInput struct {
	SerialNumber string
	IMEI         string
	MACAddress   string
	Barcode      string
	Location     string
	Shelf        string
	Bin          string
	Notes        string
}

// UnitAssignment groups the units received for one order line. Quantity is
// optional; when set it is the number of units the operator says arrived and
// must match the number of distinct serial numbers.
type UnitAssignment struct {
	ItemID   uuid.UUID
	Quantity int
	Units    []UnitInput
}

// NormalizeSerial is the stored form of a serial number: trimmed, upper case
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}
