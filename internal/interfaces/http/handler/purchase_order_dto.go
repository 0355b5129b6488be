package handler

import (
	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
)

// versioned is implemented by every lifecycle action body
type versioned interface {
	expected() int
}

// VersionRequest carries the optimistic concurrency precondition of an
// action. Zero, or an absent field, means no precondition; If-Match is
// consulted instead.
type VersionRequest struct {
	ExpectedVersion int `json:"expected_version" binding:"min=0" example:"3"`
}

func (r VersionRequest) expected() int { return r.ExpectedVersion }

// ApproveOrderRequest is the body of an approval
type ApproveOrderRequest struct {
	VersionRequest
	Notes string `json:"notes" binding:"max=2000" example:"Within budget"`
}

// ReasonRequest is the body of reject and cancel
type ReasonRequest struct {
	VersionRequest
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Supplier cannot deliver"`
}

// MakePaymentRequest records a payment. The Idempotency-Key header, when
// present, guards against submitting the same payment twice.
type MakePaymentRequest struct {
	VersionRequest
	purchasingapp.PaymentRequestInput
}

// PartialReceiveRequest sets cumulative received quantities per line
type PartialReceiveRequest struct {
	VersionRequest
	Lines []purchasingapp.ReceiveLineInput `json:"lines" binding:"required,min=1,dive"`
}

// SerialReceiveRequest receives serialized units per line
type SerialReceiveRequest struct {
	VersionRequest
	Assignments []purchasingapp.SerialAssignmentInput `json:"assignments" binding:"required,min=1,dive"`
}

// QualityCheckRequest records one inspection result per line
type QualityCheckRequest struct {
	VersionRequest
	Checks []purchasingapp.QualityCheckLineInput `json:"checks" binding:"required,min=1,dive"`
}

// RecordReturnRequest sends received goods of one line back to the supplier
type RecordReturnRequest struct {
	VersionRequest
	purchasingapp.ReturnInput
}

// ReceiveSummaryRequest optionally carries current stock positions so the
// summary can project weighted average costs
type ReceiveSummaryRequest struct {
	Stock []purchasingapp.StockPosition `json:"stock" binding:"dive"`
}
