package purchasing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReceiptLine sets the new cumulative received quantity of one line
type ReceiptLine struct {
	ItemID           uuid.UUID
	ReceivedQuantity int
}

// ReceiptPlan is the validated outcome of a receiving action. It is computed
// from an order snapshot without modifying it and is handed to the order
// service for persistence.
type ReceiptPlan struct {
	OrderID uuid.UUID
	Action  Action
	From    Status
	To      Status
	// Lines holds the resulting cumulative quantity of every touched line
	Lines []ReceiptLine
	// Units holds the serial-numbered units to create (serial receive only)
	Units         []ReceivedUnit
	FullyReceived bool
	// UnitsReceived is the number of units added by this receipt
	UnitsReceived   int
	ActorID         uuid.UUID
	Note            string
	ExpectedVersion int
}

// PlanFullReceive books every outstanding unit of every line
func PlanFullReceive(order *PurchaseOrder) (*ReceiptPlan, error) {
	if _, err := Resolve(order, ActionReceive); err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, validationError(ActionReceive, order, "order has no items")
	}

	plan := newReceiptPlan(order, ActionReceive)
	for i := range order.Items {
		item := &order.Items[i]
		plan.Lines = append(plan.Lines, ReceiptLine{ItemID: item.ID, ReceivedQuantity: item.Quantity})
		plan.UnitsReceived += item.RemainingQuantity()
	}
	plan.FullyReceived = true
	plan.To = StatusReceived
	return plan, nil
}

// ReceiptFloors is the lowest cumulative quantity each line may be
// corrected down to: the serial units booked against it or the quantity
// already returned, whichever is larger.
type ReceiptFloors map[uuid.UUID]int

// NewReceiptFloors derives the floors from booked units and recorded returns
func NewReceiptFloors(units []ReceivedUnit, returns []ReturnRecord) ReceiptFloors {
	booked := make(map[uuid.UUID]int)
	for _, u := range units {
		booked[u.ItemID]++
	}
	returned := make(map[uuid.UUID]int)
	for _, r := range returns {
		returned[r.ItemID] += r.Quantity
	}
	floors := make(ReceiptFloors, len(booked)+len(returned))
	for id, n := range booked {
		floors[id] = n
	}
	for id, n := range returned {
		if n > floors[id] {
			floors[id] = n
		}
	}
	return floors
}

// PlanPartialReceive validates a batch of cumulative received quantities.
// Every line must satisfy floor <= received <= ordered, where the floor
// comes from floors and defaults to 0; a single violation rejects the whole
// batch. The resulting status is received when every line of the order
// ends up fully received, partial_received otherwise.
func PlanPartialReceive(order *PurchaseOrder, lines []ReceiptLine, floors ReceiptFloors) (*ReceiptPlan, error) {
	if _, err := Resolve(order, ActionPartialReceive); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, validationError(ActionPartialReceive, order, "no receipt lines supplied")
	}

	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		item := order.FindItem(line.ItemID)
		if item == nil {
			return nil, invalidQuantity(ActionPartialReceive, order, line.ItemID, "item does not belong to the order")
		}
		if _, dup := seen[line.ItemID]; dup {
			return nil, invalidQuantity(ActionPartialReceive, order, line.ItemID, "item listed more than once")
		}
		seen[line.ItemID] = struct{}{}
		if line.ReceivedQuantity < 0 || line.ReceivedQuantity > item.Quantity {
			return nil, invalidQuantity(ActionPartialReceive, order, line.ItemID,
				fmt.Sprintf("received quantity %d must be between 0 and %d", line.ReceivedQuantity, item.Quantity))
		}
		if floor := floors[line.ItemID]; line.ReceivedQuantity < floor {
			return nil, invalidQuantity(ActionPartialReceive, order, line.ItemID,
				fmt.Sprintf("received quantity %d is below the %d units already booked or returned", line.ReceivedQuantity, floor))
		}
	}

	plan := newReceiptPlan(order, ActionPartialReceive)
	items := order.Clone().Items
	for _, line := range lines {
		for i := range items {
			if items[i].ID != line.ItemID {
				continue
			}
			if delta := line.ReceivedQuantity - items[i].ReceivedQuantity; delta > 0 {
				plan.UnitsReceived += delta
			}
			items[i].ReceivedQuantity = line.ReceivedQuantity
		}
		plan.Lines = append(plan.Lines, line)
	}
	plan.FullyReceived = allReceived(items)
	plan.To = receiptStatus(plan.FullyReceived)
	return plan, nil
}

// PlanSerialReceive validates a serial-number receipt. Each assignment adds
// one unit per distinct serial number to its line. Duplicate serials within
// the batch or against units already received, and a stated quantity that
// differs from the distinct serial count, fail with SerialCountMismatch
// before anything is persisted.
//
// existing holds the units already booked that a new serial may collide
// with: every unit of this order, and units of other orders for the same
// products. A serial is taken when it was received on this order or for the
// same product on any order.
func PlanSerialReceive(order *PurchaseOrder, assignments []UnitAssignment, existing []ReceivedUnit, actorID uuid.UUID, now time.Time) (*ReceiptPlan, error) {
	if _, err := Resolve(order, ActionSerialReceive); err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, validationError(ActionSerialReceive, order, "no unit assignments supplied")
	}

	onOrder := make(map[string]struct{}, len(existing))
	byProduct := make(map[productSerial]uuid.UUID, len(existing))
	for _, u := range existing {
		serial := NormalizeSerial(u.SerialNumber)
		if u.OrderID == order.ID {
			onOrder[serial] = struct{}{}
		}
		byProduct[productSerial{u.ProductID, serial}] = u.OrderID
	}

	plan := newReceiptPlan(order, ActionSerialReceive)
	items := order.Clone().Items
	batch := make(map[string]uuid.UUID)
	seenItems := make(map[uuid.UUID]struct{}, len(assignments))

	for _, a := range assignments {
		item := findItem(items, a.ItemID)
		if item == nil {
			return nil, invalidQuantity(ActionSerialReceive, order, a.ItemID, "item does not belong to the order")
		}
		if _, dup := seenItems[a.ItemID]; dup {
			return nil, invalidQuantity(ActionSerialReceive, order, a.ItemID, "item listed more than once")
		}
		seenItems[a.ItemID] = struct{}{}

		distinct := make(map[string]struct{}, len(a.Units))
		for _, in := range a.Units {
			serial := NormalizeSerial(in.SerialNumber)
			if serial == "" {
				return nil, serialMismatch(ActionSerialReceive, order, a.ItemID, "every unit needs a serial number")
			}
			if _, ok := onOrder[serial]; ok {
				return nil, serialMismatch(ActionSerialReceive, order, a.ItemID,
					fmt.Sprintf("serial %s was already received", serial))
			}
			if other, ok := byProduct[productSerial{item.ProductID, serial}]; ok {
				return nil, serialMismatch(ActionSerialReceive, order, a.ItemID,
					fmt.Sprintf("serial %s was already received for this product on order %s", serial, other))
			}
			if other, ok := batch[serial]; ok && other != a.ItemID {
				return nil, serialMismatch(ActionSerialReceive, order, a.ItemID,
					fmt.Sprintf("serial %s is assigned to more than one item", serial))
			}
			batch[serial] = a.ItemID
			distinct[serial] = struct{}{}
		}

		delta := len(a.Units)
		if a.Quantity > 0 {
			delta = a.Quantity
		}
		if len(distinct) != delta {
			return nil, serialMismatch(ActionSerialReceive, order, a.ItemID,
				fmt.Sprintf("expected %d distinct serial numbers, got %d", delta, len(distinct)))
		}
		if delta == 0 {
			return nil, serialMismatch(ActionSerialReceive, order, a.ItemID, "no serial numbers supplied")
		}

		newQty := item.ReceivedQuantity + delta
		if newQty > item.Quantity {
			return nil, invalidQuantity(ActionSerialReceive, order, a.ItemID,
				fmt.Sprintf("receiving %d units exceeds the %d outstanding", delta, item.RemainingQuantity()))
		}
		item.ReceivedQuantity = newQty
		plan.Lines = append(plan.Lines, ReceiptLine{ItemID: item.ID, ReceivedQuantity: newQty})
		plan.UnitsReceived += delta

		for _, in := range a.Units {
			plan.Units = append(plan.Units, ReceivedUnit{
				ID:           uuid.New(),
				OrderID:      order.ID,
				ItemID:       item.ID,
				ProductID:    item.ProductID,
				VariantID:    item.VariantID,
				SerialNumber: NormalizeSerial(in.SerialNumber),
				IMEI:         in.IMEI,
				MACAddress:   in.MACAddress,
				Barcode:      in.Barcode,
				Status:       UnitStatusAvailable,
				Location:     in.Location,
				Shelf:        in.Shelf,
				Bin:          in.Bin,
				Notes:        in.Notes,
				ReceivedBy:   actorID,
				ReceivedAt:   now,
			})
		}
	}

	plan.FullyReceived = allReceived(items)
	plan.To = receiptStatus(plan.FullyReceived)
	return plan, nil
}

type productSerial struct {
	productID uuid.UUID
	serial    string
}

func newReceiptPlan(order *PurchaseOrder, action Action) *ReceiptPlan {
	return &ReceiptPlan{
		OrderID:         order.ID,
		Action:          action,
		From:            order.Status,
		ExpectedVersion: order.Version,
	}
}

func findItem(items []PurchaseOrderItem, id uuid.UUID) *PurchaseOrderItem {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func allReceived(items []PurchaseOrderItem) bool {
	if len(items) == 0 {
		return false
	}
	for i := range items {
		if !items[i].IsFullyReceived() {
			return false
		}
	}
	return true
}

func receiptStatus(fullyReceived bool) Status {
	if fullyReceived {
		return StatusReceived
	}
	return StatusPartialReceived
}
