package purchasing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QualityResult is the outcome of inspecting one line
type QualityResult string

const (
	QualityPassed    QualityResult = "passed"
	QualityFailed    QualityResult = "failed"
	QualityAttention QualityResult = "attention"
)

// IsValid checks if the result is a known value
func (r QualityResult) IsValid() bool {
	switch r {
	case QualityPassed, QualityFailed, QualityAttention:
		return true
	}
	return false
}

// QualityCheckInput is the inspector's verdict for one line
type QualityCheckInput struct {
	ItemID uuid.UUID
	Result QualityResult
	Notes  string
}

// QualityCheckRecord is a persisted inspection verdict
type QualityCheckRecord struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ItemID    uuid.UUID
	Result    QualityResult
	Notes     string
	CheckedBy uuid.UUID
	CheckedAt time.Time
}

// QualitySummary counts verdicts by result
type QualitySummary struct {
	Passed    int
	Failed    int
	Attention int
}

// HasIssues reports whether any line failed or needs attention
func (s QualitySummary) HasIssues() bool {
	return s.Failed > 0 || s.Attention > 0
}

// QualityPlan is the validated outcome of completing a quality check
type QualityPlan struct {
	OrderID         uuid.UUID
	From            Status
	To              Status
	Records         []QualityCheckRecord
	Summary         QualitySummary
	ActorID         uuid.UUID
	ExpectedVersion int
}

// NextQualityStatus maps the current status to the status an order moves to
// when a quality check is completed. Individual verdicts do not influence it.
func NextQualityStatus(current Status) Status {
	switch current {
	case StatusReceived:
		return StatusQualityChecked
	case StatusQualityChecked:
		return StatusCompleted
	case StatusPartialReceived:
		return StatusPartialReceived
	case StatusSent, StatusShipped:
		return StatusReceived
	default:
		return StatusCompleted
	}
}

// PlanQualityCheck validates the verdicts and derives the next status.
// Verdicts are optional; each must reference a line of the order at most once.
func PlanQualityCheck(order *PurchaseOrder, checks []QualityCheckInput, actorID uuid.UUID, now time.Time) (*QualityPlan, error) {
	if _, err := Resolve(order, ActionQualityCheck); err != nil {
		return nil, err
	}

	plan := &QualityPlan{
		OrderID:         order.ID,
		From:            order.Status,
		To:              NextQualityStatus(order.Status),
		Records:         make([]QualityCheckRecord, 0, len(checks)),
		ActorID:         actorID,
		ExpectedVersion: order.Version,
	}

	seen := make(map[uuid.UUID]struct{}, len(checks))
	for _, c := range checks {
		if order.FindItem(c.ItemID) == nil {
			e := validationError(ActionQualityCheck, order, "item does not belong to the order")
			e.ItemID = c.ItemID
			return nil, e
		}
		if _, dup := seen[c.ItemID]; dup {
			e := validationError(ActionQualityCheck, order, "item checked more than once")
			e.ItemID = c.ItemID
			return nil, e
		}
		seen[c.ItemID] = struct{}{}
		if !c.Result.IsValid() {
			e := validationError(ActionQualityCheck, order, fmt.Sprintf("unknown quality result %q", c.Result))
			e.ItemID = c.ItemID
			return nil, e
		}

		switch c.Result {
		case QualityPassed:
			plan.Summary.Passed++
		case QualityFailed:
			plan.Summary.Failed++
		case QualityAttention:
			plan.Summary.Attention++
		}
		plan.Records = append(plan.Records, QualityCheckRecord{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ItemID:    c.ItemID,
			Result:    c.Result,
			Notes:     c.Notes,
			CheckedBy: actorID,
			CheckedAt: now,
		})
	}
	return plan, nil
}
