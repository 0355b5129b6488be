package purchasing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrorKind classifies why a lifecycle action was rejected
type ErrorKind string

const (
	KindInvalidTransition   ErrorKind = "INVALID_TRANSITION"
	KindInvalidQuantity     ErrorKind = "INVALID_QUANTITY"
	KindSerialCountMismatch ErrorKind = "SERIAL_COUNT_MISMATCH"
	KindPaymentRequired     ErrorKind = "PAYMENT_REQUIRED"
	KindServiceUnreachable  ErrorKind = "SERVICE_UNREACHABLE"
	KindConflict            ErrorKind = "CONFLICT"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindValidation          ErrorKind = "VALIDATION_ERROR"
)

// Sentinels for errors.Is. Matching compares the Kind only.
var (
	ErrInvalidTransition   = &LifecycleError{Kind: KindInvalidTransition}
	ErrInvalidQuantity     = &LifecycleError{Kind: KindInvalidQuantity}
	ErrSerialCountMismatch = &LifecycleError{Kind: KindSerialCountMismatch}
	ErrPaymentRequired     = &LifecycleError{Kind: KindPaymentRequired}
	ErrServiceUnreachable  = &LifecycleError{Kind: KindServiceUnreachable}
	ErrConflict            = &LifecycleError{Kind: KindConflict}
	ErrNotFound            = &LifecycleError{Kind: KindNotFound}
	ErrValidation          = &LifecycleError{Kind: KindValidation}
)

// LifecycleError describes a rejected lifecycle action. It always names the
// attempted action and the order state it was attempted in, so callers can
// render an actionable message.
type LifecycleError struct {
	Kind          ErrorKind
	Action        Action
	OrderID       uuid.UUID
	Status        Status
	PaymentStatus PaymentStatus
	// Required is the state the action needed, e.g. "paid" or "pending_approval"
	Required string
	// ItemID is set when a single line item caused the rejection
	ItemID uuid.UUID
	Reason string
	// Committed is set when the change was stored and only a later step
	// failed. The action must not be retried.
	Committed bool
	Err       error
}

// Code returns the error code used by transport layers
func (e *LifecycleError) Code() string {
	return string(e.Kind)
}

func (e *LifecycleError) Error() string {
	var b strings.Builder
	if e.Action != "" {
		fmt.Fprintf(&b, "%s rejected", e.Action)
	} else {
		b.WriteString("purchase order operation rejected")
	}
	fmt.Fprintf(&b, " (%s)", e.Kind)
	if e.Status != "" {
		fmt.Fprintf(&b, ": status %s", e.Status)
	}
	if e.PaymentStatus != "" {
		fmt.Fprintf(&b, ", payment %s", e.PaymentStatus)
	}
	if e.Required != "" {
		fmt.Fprintf(&b, ", requires %s", e.Required)
	}
	if e.ItemID != uuid.Nil {
		fmt.Fprintf(&b, ", item %s", e.ItemID)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a LifecycleError of the same kind
func (e *LifecycleError) Is(target error) bool {
	t, ok := target.(*LifecycleError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the ErrorKind from err, or "" when err is not a LifecycleError
func KindOf(err error) ErrorKind {
	var lerr *LifecycleError
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return ""
}

func newError(kind ErrorKind, action Action, order *PurchaseOrder, reason string) *LifecycleError {
	e := &LifecycleError{Kind: kind, Action: action, Reason: reason}
	if order != nil {
		e.OrderID = order.ID
		e.Status = order.Status
		e.PaymentStatus = order.PaymentStatus
	}
	return e
}

func invalidTransition(action Action, order *PurchaseOrder, required string) *LifecycleError {
	e := newError(KindInvalidTransition, action, order, "")
	e.Required = required
	return e
}

func invalidQuantity(action Action, order *PurchaseOrder, itemID uuid.UUID, reason string) *LifecycleError {
	e := newError(KindInvalidQuantity, action, order, reason)
	e.ItemID = itemID
	return e
}

func serialMismatch(action Action, order *PurchaseOrder, itemID uuid.UUID, reason string) *LifecycleError {
	e := newError(KindSerialCountMismatch, action, order, reason)
	e.ItemID = itemID
	return e
}

func validationError(action Action, order *PurchaseOrder, reason string) *LifecycleError {
	return newError(KindValidation, action, order, reason)
}

// WrapServiceError attaches a taxonomy kind to a failure returned by the
// order service. Errors that already carry a kind are returned unchanged.
func WrapServiceError(kind ErrorKind, action Action, order *PurchaseOrder, err error) error {
	if err == nil {
		return nil
	}
	var lerr *LifecycleError
	if errors.As(err, &lerr) {
		return err
	}
	e := newError(kind, action, order, "")
	e.Err = err
	return e
}

// WrapServiceErrorWithReason is WrapServiceError with an explanation for
// the caller attached
func WrapServiceErrorWithReason(kind ErrorKind, action Action, order *PurchaseOrder, reason string, err error) error {
	if err == nil {
		return nil
	}
	e := newError(kind, action, order, reason)
	e.Err = err
	return e
}
