package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderSession holds the snapshot of one purchase order for a sequence of
// lifecycle actions. The snapshot is never edited locally: an action plans
// its change against the snapshot, persists it and then replaces the
// snapshot with a fresh load. A failed action leaves the snapshot untouched.
type OrderSession struct {
	mu      sync.Mutex
	svc     *LifecycleService
	order   *purchasing.PurchaseOrder
	actorID uuid.UUID
}

// Order returns a copy of the current snapshot
func (s *OrderSession) Order() *purchasing.PurchaseOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Clone()
}

// Reload replaces the snapshot with the stored order
func (s *OrderSession) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

// SubmitForApproval moves a draft order to pending_approval
func (s *OrderSession) SubmitForApproval(ctx context.Context) error {
	return s.changeStatus(ctx, purchasing.ActionSubmitForApproval, "")
}

// Approve approves an order awaiting approval
func (s *OrderSession) Approve(ctx context.Context, notes string) error {
	return s.changeStatus(ctx, purchasing.ActionApprove, notes)
}

// ApproveDirect approves a draft order in one step.
//
// Deprecated: use SubmitForApproval followed by Approve.
func (s *OrderSession) ApproveDirect(ctx context.Context, notes string) error {
	return s.changeStatus(ctx, purchasing.ActionApproveDirect, notes)
}

// Reject returns an order awaiting approval to draft
func (s *OrderSession) Reject(ctx context.Context, reason string) error {
	return s.changeStatus(ctx, purchasing.ActionReject, reason)
}

// SendToSupplier marks an approved order as sent
func (s *OrderSession) SendToSupplier(ctx context.Context) error {
	return s.changeStatus(ctx, purchasing.ActionSendToSupplier, "")
}

// Confirm records the supplier's confirmation
func (s *OrderSession) Confirm(ctx context.Context) error {
	return s.changeStatus(ctx, purchasing.ActionConfirm, "")
}

// MarkShipped records that the goods were dispatched
func (s *OrderSession) MarkShipped(ctx context.Context) error {
	return s.changeStatus(ctx, purchasing.ActionMarkShipped, "")
}

// CompleteOrder closes a fully received order
func (s *OrderSession) CompleteOrder(ctx context.Context) error {
	return s.changeStatus(ctx, purchasing.ActionComplete, "")
}

// Cancel cancels the order
func (s *OrderSession) Cancel(ctx context.Context, reason string) error {
	return s.changeStatus(ctx, purchasing.ActionCancel, reason)
}

func (s *OrderSession) changeStatus(ctx context.Context, action purchasing.Action, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	change, err := purchasing.PlanStatusChange(s.order, action, s.actorID, note)
	if err != nil {
		return s.svc.rejected(ctx, action, err)
	}
	if err := s.svc.call(ctx, "PersistStatus", func(ctx context.Context) error {
		return s.svc.orders.PersistStatus(ctx, change)
	}); err != nil {
		return s.fail(ctx, action, err)
	}

	if s.svc.metrics != nil {
		s.svc.metrics.RecordTransition(ctx, string(action), string(change.From), string(change.To))
	}
	s.svc.log(ctx).Info("Purchase order status changed",
		zap.String("action", string(action)),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
	)
	return s.afterCommit(ctx, action,
		purchasing.NewStatusChangedEvent(change.OrderID, action, change.From, change.To, change.ActorID, change.Note))
}

// MakePayment records a supplier payment. A payment whose reference or
// idempotency key was already accepted for the order is refused with Conflict.
func (s *OrderSession) MakePayment(ctx context.Context, req PaymentRequestInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := purchasing.ActionMakePayment
	in := purchasing.PaymentInput{
		Method:       purchasing.PaymentMethod(req.Method),
		Amount:       req.Amount,
		Currency:     valueobject.Currency(strings.ToUpper(strings.TrimSpace(req.Currency))),
		ExchangeRate: req.ExchangeRate,
		Status:       purchasing.PaymentRecordStatus(req.Status),
		Reference:    req.Reference,
		Notes:        req.Notes,
	}
	payment, err := purchasing.PlanPayment(s.order, in, s.actorID, s.svc.now())
	if err != nil {
		return s.svc.rejected(ctx, action, err)
	}

	key := paymentKey(s.order.ID, req.IdempotencyKey, payment.Payment.Reference)
	if key != "" && s.svc.idempotency != nil {
		fresh, err := s.svc.idempotency.MarkProcessed(ctx, key, s.svc.idempotencyTTL)
		if err != nil {
			return s.fail(ctx, action, fmt.Errorf("idempotency store: %w", err))
		}
		if !fresh {
			return s.svc.rejected(ctx, action, &purchasing.LifecycleError{
				Kind:          purchasing.KindConflict,
				Action:        action,
				OrderID:       s.order.ID,
				Status:        s.order.Status,
				PaymentStatus: s.order.PaymentStatus,
				Reason:        "this payment was already submitted",
				Err:           shared.ErrDuplicateRequest,
			})
		}
	}

	if err := s.svc.call(ctx, "PersistPayment", func(ctx context.Context) error {
		return s.svc.orders.PersistPayment(ctx, payment)
	}); err != nil {
		if key != "" && s.svc.idempotency != nil {
			if relErr := s.svc.idempotency.Release(ctx, key); relErr != nil {
				s.svc.log(ctx).Warn("Failed to release payment key", zap.String("key", key), zap.Error(relErr))
			}
		}
		return s.fail(ctx, action, err)
	}

	if s.svc.metrics != nil {
		s.svc.metrics.RecordPayment(ctx, string(payment.Payment.Method), string(payment.Payment.Status))
	}
	s.svc.log(ctx).Info("Supplier payment recorded",
		zap.String("payment_id", payment.Payment.ID.String()),
		zap.String("amount", valueobject.FormatCurrency(payment.Payment.Amount, payment.Payment.Currency)),
		zap.String("payment_status", string(payment.NewPaymentStatus)),
	)
	return s.afterCommit(ctx, action, purchasing.NewPaymentRecordedEvent(payment))
}

func paymentKey(orderID uuid.UUID, idempotencyKey, reference string) string {
	if k := strings.TrimSpace(idempotencyKey); k != "" {
		return "po:payment:" + orderID.String() + ":key:" + k
	}
	if reference != "" {
		return "po:payment:" + orderID.String() + ":ref:" + strings.ToUpper(reference)
	}
	return ""
}

// Receive books in every outstanding unit of every line
func (s *OrderSession) Receive(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, err := purchasing.PlanFullReceive(s.order)
	if err != nil {
		return s.svc.rejected(ctx, purchasing.ActionReceive, err)
	}
	return s.persistReceipt(ctx, plan)
}

// PartialReceive sets the cumulative received quantity of the given lines
func (s *OrderSession) PartialReceive(ctx context.Context, lines []ReceiveLineInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := purchasing.ActionPartialReceive
	receipt := make([]purchasing.ReceiptLine, len(lines))
	lowers := false
	for i, l := range lines {
		receipt[i] = purchasing.ReceiptLine{ItemID: l.ItemID, ReceivedQuantity: l.ReceivedQuantity}
		if item := s.order.FindItem(l.ItemID); item != nil && l.ReceivedQuantity < item.ReceivedQuantity {
			lowers = true
		}
	}

	// only a downward correction can cut into booked units or returns
	var floors purchasing.ReceiptFloors
	if lowers {
		if _, err := purchasing.Resolve(s.order, action); err != nil {
			return s.svc.rejected(ctx, action, err)
		}
		var err error
		if floors, err = s.receiptFloors(ctx); err != nil {
			return s.fail(ctx, action, err)
		}
	}

	plan, err := purchasing.PlanPartialReceive(s.order, receipt, floors)
	if err != nil {
		return s.svc.rejected(ctx, action, err)
	}
	return s.persistReceipt(ctx, plan)
}

func (s *OrderSession) receiptFloors(ctx context.Context) (purchasing.ReceiptFloors, error) {
	units, err := callWithResult(ctx, s.svc, "FetchReceivedUnits", func(ctx context.Context) ([]purchasing.ReceivedUnit, error) {
		return s.svc.orders.FetchReceivedUnits(ctx, s.order.ID)
	})
	if err != nil {
		return nil, err
	}
	returns, err := callWithResult(ctx, s.svc, "FetchReturns", func(ctx context.Context) ([]purchasing.ReturnRecord, error) {
		return s.svc.orders.FetchReturns(ctx, s.order.ID)
	})
	if err != nil {
		return nil, err
	}
	return purchasing.NewReceiptFloors(units, returns), nil
}

// SerialNumberReceive books in serial-numbered units
func (s *OrderSession) SerialNumberReceive(ctx context.Context, assignments []SerialAssignmentInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := purchasing.ActionSerialReceive
	if _, err := purchasing.Resolve(s.order, action); err != nil {
		return s.svc.rejected(ctx, action, err)
	}

	existing, err := callWithResult(ctx, s.svc, "FetchReceivedUnits", func(ctx context.Context) ([]purchasing.ReceivedUnit, error) {
		return s.svc.orders.FetchReceivedUnits(ctx, s.order.ID)
	})
	if err != nil {
		return s.fail(ctx, action, err)
	}
	productIDs, serials := s.serialLookup(assignments)
	if len(productIDs) > 0 && len(serials) > 0 {
		taken, err := callWithResult(ctx, s.svc, "FetchUnitsBySerial", func(ctx context.Context) ([]purchasing.ReceivedUnit, error) {
			return s.svc.orders.FetchUnitsBySerial(ctx, productIDs, serials)
		})
		if err != nil {
			return s.fail(ctx, action, err)
		}
		existing = append(existing, taken...)
	}

	domainAssignments := make([]purchasing.UnitAssignment, len(assignments))
	for i, a := range assignments {
		units := make([]purchasing.UnitInput, len(a.Units))
		for j, u := range a.Units {
			units[j] = purchasing.UnitInput{
				SerialNumber: u.SerialNumber,
				IMEI:         u.IMEI,
				MACAddress:   u.MACAddress,
				Barcode:      u.Barcode,
				Location:     u.Location,
				Shelf:        u.Shelf,
				Bin:          u.Bin,
				Notes:        u.Notes,
			}
		}
		domainAssignments[i] = purchasing.UnitAssignment{ItemID: a.ItemID, Quantity: a.Quantity, Units: units}
	}

	plan, err := purchasing.PlanSerialReceive(s.order, domainAssignments, existing, s.actorID, s.svc.now())
	if err != nil {
		return s.svc.rejected(ctx, action, err)
	}
	return s.persistReceipt(ctx, plan)
}

// serialLookup lists the products and normalized serials of a serial
// receipt so units booked on other orders can be checked up front
func (s *OrderSession) serialLookup(assignments []SerialAssignmentInput) ([]uuid.UUID, []string) {
	var (
		productIDs []uuid.UUID
		serials    []string
		seen       = make(map[string]struct{})
		products   = make(map[uuid.UUID]struct{})
	)
	for _, a := range assignments {
		item := s.order.FindItem(a.ItemID)
		if item == nil {
			continue
		}
		if _, ok := products[item.ProductID]; !ok {
			products[item.ProductID] = struct{}{}
			productIDs = append(productIDs, item.ProductID)
		}
		for _, u := range a.Units {
			serial := purchasing.NormalizeSerial(u.SerialNumber)
			if _, ok := seen[serial]; serial == "" || ok {
				continue
			}
			seen[serial] = struct{}{}
			serials = append(serials, serial)
		}
	}
	return productIDs, serials
}

func (s *OrderSession) persistReceipt(ctx context.Context, plan *purchasing.ReceiptPlan) error {
	plan.ActorID = s.actorID
	if err := s.svc.call(ctx, "PersistReceivedQuantities", func(ctx context.Context) error {
		return s.svc.orders.PersistReceivedQuantities(ctx, plan)
	}); err != nil {
		return s.fail(ctx, plan.Action, err)
	}

	if s.svc.metrics != nil {
		s.svc.metrics.RecordUnitsReceived(ctx, string(plan.Action), plan.UnitsReceived)
		if plan.From != plan.To {
			s.svc.metrics.RecordTransition(ctx, string(plan.Action), string(plan.From), string(plan.To))
		}
	}
	s.svc.log(ctx).Info("Goods received",
		zap.String("action", string(plan.Action)),
		zap.Int("units", plan.UnitsReceived),
		zap.Int("serial_units", len(plan.Units)),
		zap.String("status", string(plan.To)),
	)

	events := []shared.DomainEvent{purchasing.NewGoodsReceivedEvent(plan)}
	if plan.From != plan.To {
		events = append(events, purchasing.NewStatusChangedEvent(plan.OrderID, plan.Action, plan.From, plan.To, plan.ActorID, plan.Note))
	}
	return s.afterCommit(ctx, plan.Action, events...)
}

// CompleteQualityCheck records the inspection verdicts and moves the order
// to the next status. Failed lines do not hold the order back; they raise a
// QualityIssuesFound event instead.
func (s *OrderSession) CompleteQualityCheck(ctx context.Context, checks []QualityCheckLineInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := purchasing.ActionQualityCheck
	inputs := make([]purchasing.QualityCheckInput, len(checks))
	for i, c := range checks {
		inputs[i] = purchasing.QualityCheckInput{ItemID: c.ItemID, Result: purchasing.QualityResult(c.Result), Notes: c.Notes}
	}
	plan, err := purchasing.PlanQualityCheck(s.order, inputs, s.actorID, s.svc.now())
	if err != nil {
		return s.svc.rejected(ctx, action, err)
	}
	if err := s.svc.call(ctx, "PersistQualityCheck", func(ctx context.Context) error {
		return s.svc.orders.PersistQualityCheck(ctx, plan)
	}); err != nil {
		return s.fail(ctx, action, err)
	}

	if s.svc.metrics != nil && plan.From != plan.To {
		s.svc.metrics.RecordTransition(ctx, string(action), string(plan.From), string(plan.To))
	}

	events := []shared.DomainEvent{purchasing.NewQualityCheckedEvent(plan)}
	if plan.Summary.HasIssues() {
		s.svc.log(ctx).Warn("Quality check found issues",
			zap.Int("failed", plan.Summary.Failed),
			zap.Int("attention", plan.Summary.Attention),
		)
		events = append(events, purchasing.NewQualityIssuesFoundEvent(plan))
	}
	if plan.From != plan.To {
		events = append(events, purchasing.NewStatusChangedEvent(plan.OrderID, action, plan.From, plan.To, plan.ActorID, ""))
	}
	return s.afterCommit(ctx, action, events...)
}

// RecordReturn records goods sent back to the supplier. The received
// quantity of the line is left as is.
func (s *OrderSession) RecordReturn(ctx context.Context, in ReturnInput) (*purchasing.ReturnRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := purchasing.ActionRecordReturn
	domainIn := purchasing.ReturnInput{
		ItemID:   in.ItemID,
		Quantity: in.Quantity,
		Reason:   purchasing.ReturnReason(in.Reason),
		Notes:    strings.TrimSpace(in.Notes),
	}
	if _, err := purchasing.PlanReturn(s.order, domainIn, 0, s.actorID, s.svc.now()); err != nil {
		return nil, s.svc.rejected(ctx, action, err)
	}

	previous, err := callWithResult(ctx, s.svc, "FetchReturns", func(ctx context.Context) ([]purchasing.ReturnRecord, error) {
		return s.svc.orders.FetchReturns(ctx, s.order.ID)
	})
	if err != nil {
		return nil, s.fail(ctx, action, err)
	}
	already := 0
	for _, r := range previous {
		if r.ItemID == in.ItemID {
			already += r.Quantity
		}
	}

	record, err := purchasing.PlanReturn(s.order, domainIn, already, s.actorID, s.svc.now())
	if err != nil {
		return nil, s.svc.rejected(ctx, action, err)
	}
	if err := s.svc.call(ctx, "PersistReturn", func(ctx context.Context) error {
		return s.svc.orders.PersistReturn(ctx, record)
	}); err != nil {
		return nil, s.fail(ctx, action, err)
	}
	if err := s.afterCommit(ctx, action, purchasing.NewReturnRecordedEvent(record)); err != nil {
		return nil, err
	}
	return record, nil
}

// expectVersion fails with Conflict when the caller saw a different version
func (s *OrderSession) expectVersion(version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version == 0 || version == s.order.Version {
		return nil
	}
	return &purchasing.LifecycleError{
		Kind:          purchasing.KindConflict,
		OrderID:       s.order.ID,
		Status:        s.order.Status,
		PaymentStatus: s.order.PaymentStatus,
		Reason:        fmt.Sprintf("order is at version %d, request expected %d", s.order.Version, version),
		Err:           shared.ErrConcurrencyConflict,
	}
}

// afterCommit publishes the events of a persisted change and reloads the
// snapshot. A failed reload does not undo the write: the error is marked
// Committed so callers refetch instead of retrying.
func (s *OrderSession) afterCommit(ctx context.Context, action purchasing.Action, events ...shared.DomainEvent) error {
	s.svc.publish(ctx, events...)
	if err := s.reloadLocked(ctx); err != nil {
		kind, cause := purchasing.KindServiceUnreachable, err
		var lerr *purchasing.LifecycleError
		if errors.As(err, &lerr) {
			kind = lerr.Kind
			if lerr.Err != nil {
				cause = lerr.Err
			}
		}
		s.svc.log(ctx).Error("Order reload failed after a committed change",
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return &purchasing.LifecycleError{
			Kind:          kind,
			Action:        action,
			OrderID:       s.order.ID,
			Status:        s.order.Status,
			PaymentStatus: s.order.PaymentStatus,
			Reason:        "change was saved but the order could not be reloaded",
			Committed:     true,
			Err:           cause,
		}
	}
	return nil
}

func (s *OrderSession) reloadLocked(ctx context.Context) error {
	order, err := s.svc.fetchOrder(ctx, s.order.ID)
	if err != nil {
		return err
	}
	s.order = order
	return nil
}

func (s *OrderSession) fail(ctx context.Context, action purchasing.Action, err error) error {
	return s.svc.rejected(ctx, action, s.svc.wrapServiceError(action, s.order, err))
}
