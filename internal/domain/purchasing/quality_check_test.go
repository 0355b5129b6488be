package purchasing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextQualityStatus(t *testing.T) {
	tests := []struct {
		current Status
		want    Status
	}{
		{StatusReceived, StatusQualityChecked},
		{StatusQualityChecked, StatusCompleted},
		{StatusPartialReceived, StatusPartialReceived},
		{StatusSent, StatusReceived},
		{StatusShipped, StatusReceived},
		{StatusConfirmed, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.current), func(t *testing.T) {
			assert.Equal(t, tt.want, NextQualityStatus(tt.current))
		})
	}
}

func TestPlanQualityCheck(t *testing.T) {
	actor := uuid.New()
	now := time.Now()

	t.Run("two checks take received to completed", func(t *testing.T) {
		order := orderIn(t, StatusReceived, PaymentStatusPaid, 2)
		order.Items[0].ReceivedQuantity = 2

		first, err := PlanQualityCheck(order, nil, actor, now)
		require.NoError(t, err)
		assert.Equal(t, StatusQualityChecked, first.To)

		order.Status = first.To
		second, err := PlanQualityCheck(order, nil, actor, now)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, second.To)

		order.Status = second.To
		_, err = PlanQualityCheck(order, nil, actor, now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("failed verdicts do not block progression", func(t *testing.T) {
		order := orderIn(t, StatusReceived, PaymentStatusPaid, 2, 2, 2)
		plan, err := PlanQualityCheck(order, []QualityCheckInput{
			{ItemID: order.Items[0].ID, Result: QualityPassed},
			{ItemID: order.Items[1].ID, Result: QualityFailed, Notes: "cracked screen"},
			{ItemID: order.Items[2].ID, Result: QualityAttention},
		}, actor, now)
		require.NoError(t, err)

		assert.Equal(t, StatusQualityChecked, plan.To)
		assert.Equal(t, QualitySummary{Passed: 1, Failed: 1, Attention: 1}, plan.Summary)
		assert.True(t, plan.Summary.HasIssues())
		require.Len(t, plan.Records, 3)
		assert.Equal(t, "cracked screen", plan.Records[1].Notes)
		assert.Equal(t, actor, plan.Records[1].CheckedBy)

		issues := NewQualityIssuesFoundEvent(plan)
		assert.Equal(t, []uuid.UUID{order.Items[1].ID}, issues.FailedItems)
		assert.Equal(t, []uuid.UUID{order.Items[2].ID}, issues.FlaggedItems)
	})

	t.Run("partial receipt stays partial", func(t *testing.T) {
		order := orderIn(t, StatusPartialReceived, PaymentStatusPaid, 2)
		plan, err := PlanQualityCheck(order, nil, actor, now)
		require.NoError(t, err)
		assert.Equal(t, StatusPartialReceived, plan.To)
		assert.False(t, plan.Summary.HasIssues())
	})

	t.Run("rejects bad verdicts", func(t *testing.T) {
		order := orderIn(t, StatusReceived, PaymentStatusPaid, 2)
		id := order.Items[0].ID

		_, err := PlanQualityCheck(order, []QualityCheckInput{{ItemID: uuid.New(), Result: QualityPassed}}, actor, now)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = PlanQualityCheck(order, []QualityCheckInput{{ItemID: id, Result: "ok"}}, actor, now)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = PlanQualityCheck(order, []QualityCheckInput{
			{ItemID: id, Result: QualityPassed},
			{ItemID: id, Result: QualityFailed},
		}, actor, now)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("not available before goods arrive", func(t *testing.T) {
		order := orderIn(t, StatusSent, PaymentStatusPaid, 2)
		_, err := PlanQualityCheck(order, nil, actor, now)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}
