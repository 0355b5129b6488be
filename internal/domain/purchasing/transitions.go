package purchasing

// Action is a lifecycle operation requested on a purchase order
type Action string

const (
	ActionSubmitForApproval Action = "submit_for_approval"
	ActionApprove           Action = "approve"
	ActionApproveDirect     Action = "approve_direct"
	ActionReject            Action = "reject"
	ActionSendToSupplier    Action = "send_to_supplier"
	ActionConfirm           Action = "confirm"
	ActionMarkShipped       Action = "mark_shipped"
	ActionMakePayment       Action = "make_payment"
	ActionReceive           Action = "receive"
	ActionPartialReceive    Action = "partial_receive"
	ActionSerialReceive     Action = "serial_receive"
	ActionQualityCheck      Action = "quality_check"
	ActionComplete          Action = "complete"
	ActionCancel            Action = "cancel"
	ActionRecordReturn      Action = "record_return"
)

// IsReceiving reports whether the action books stock in and is therefore
// subject to the payment gate
func (a Action) IsReceiving() bool {
	switch a {
	case ActionReceive, ActionPartialReceive, ActionSerialReceive:
		return true
	}
	return false
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// Guard is an additional precondition of a transition. It returns a
// *LifecycleError when the order does not satisfy it.
type Guard func(order *PurchaseOrder, action Action) error

// Transition is one row of the lifecycle table
type Transition struct {
	From   []Status
	Action Action
	Guard  Guard
	// To is the resulting status. Empty means the status is computed by the
	// operation (receiving, quality check) or left unchanged (payment).
	To Status
	// Deprecated rows are kept for existing callers and excluded from
	// AvailableActions
	Deprecated bool
}

// Allows reports whether the row applies to the given status
func (t Transition) Allows(status Status) bool {
	for _, from := range t.From {
		if from == status {
			return true
		}
	}
	return false
}

var transitionTable = []Transition{
	{From: []Status{StatusDraft}, Action: ActionSubmitForApproval, Guard: requireItems, To: StatusPendingApproval},
	{From: []Status{StatusPendingApproval}, Action: ActionApprove, To: StatusApproved},
	{From: []Status{StatusDraft}, Action: ActionApproveDirect, Guard: requireItems, To: StatusApproved, Deprecated: true},
	{From: []Status{StatusPendingApproval}, Action: ActionReject, To: StatusDraft},
	{From: []Status{StatusApproved}, Action: ActionSendToSupplier, To: StatusSent},
	{From: []Status{StatusSent}, Action: ActionConfirm, To: StatusConfirmed},
	{From: []Status{StatusSent, StatusConfirmed}, Action: ActionMarkShipped, To: StatusShipped},
	{From: []Status{StatusSent, StatusConfirmed, StatusShipping, StatusShipped}, Action: ActionMakePayment, Guard: requireOutstanding},
	{From: []Status{StatusSent, StatusConfirmed}, Action: ActionReceive, Guard: requirePaid, To: StatusReceived},
	{From: []Status{StatusSent, StatusConfirmed, StatusShipping, StatusShipped, StatusPartialReceived}, Action: ActionPartialReceive, Guard: requirePaid},
	{From: []Status{StatusSent, StatusConfirmed, StatusShipping, StatusShipped, StatusPartialReceived}, Action: ActionSerialReceive, Guard: requirePaid},
	{From: []Status{StatusDraft, StatusSent, StatusConfirmed}, Action: ActionCancel, Guard: requireNotPaid, To: StatusCancelled},
	{From: []Status{StatusReceived, StatusPartialReceived, StatusQualityChecked}, Action: ActionQualityCheck},
	{From: []Status{StatusReceived}, Action: ActionComplete, Guard: requireFullyReceived, To: StatusCompleted},
}

// Transitions returns a copy of the lifecycle table
func Transitions() []Transition {
	out := make([]Transition, len(transitionTable))
	copy(out, transitionTable)
	return out
}

// Resolve looks up the row for action in the order's current status and runs
// its guard. Receiving actions consult the payment gate before anything else.
// An action with no row for the current status fails with InvalidTransition.
func Resolve(order *PurchaseOrder, action Action) (Transition, error) {
	if action.IsReceiving() {
		if err := CheckCanReceive(order, action); err != nil {
			return Transition{}, err
		}
	}

	var candidate *Transition
	for i := range transitionTable {
		if transitionTable[i].Action != action {
			continue
		}
		if transitionTable[i].Allows(order.Status) {
			candidate = &transitionTable[i]
			break
		}
	}
	if candidate == nil {
		return Transition{}, invalidTransition(action, order, requiredStatuses(action))
	}
	if candidate.Guard != nil {
		if err := candidate.Guard(order, action); err != nil {
			return Transition{}, err
		}
	}
	return *candidate, nil
}

// AvailableActions lists the non-deprecated actions that would currently be
// accepted for the order, in table order
func AvailableActions(order *PurchaseOrder) []Action {
	actions := make([]Action, 0, 4)
	for _, t := range transitionTable {
		if t.Deprecated || !t.Allows(order.Status) {
			continue
		}
		if t.Guard != nil && t.Guard(order, t.Action) != nil {
			continue
		}
		actions = append(actions, t.Action)
	}
	return actions
}

func requiredStatuses(action Action) string {
	var from []Status
	for _, t := range transitionTable {
		if t.Action == action {
			from = append(from, t.From...)
		}
	}
	if len(from) == 0 {
		return "a supported action"
	}
	s := string(from[0])
	for _, st := range from[1:] {
		s += "|" + string(st)
	}
	return s
}

func requireItems(order *PurchaseOrder, action Action) error {
	if len(order.Items) == 0 {
		e := invalidTransition(action, order, "at least one item")
		e.Reason = "order has no items"
		return e
	}
	return nil
}

func requirePaid(order *PurchaseOrder, action Action) error {
	return CheckCanReceive(order, action)
}

func requireNotPaid(order *PurchaseOrder, action Action) error {
	return CheckCanCancel(order, action)
}

func requireOutstanding(order *PurchaseOrder, action Action) error {
	if order.PaymentStatus == PaymentStatusPaid {
		e := invalidTransition(action, order, "payment status unpaid|partial")
		e.Reason = "order is already paid in full"
		return e
	}
	return nil
}

func requireFullyReceived(order *PurchaseOrder, action Action) error {
	if !order.IsFullyReceived() {
		e := invalidTransition(action, order, "all items fully received")
		e.Reason = "some items are still outstanding"
		return e
	}
	return nil
}
