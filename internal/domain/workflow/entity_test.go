package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessRate(t *testing.T) {
	t.Run("all successes yield exactly 100", func(t *testing.T) {
		for _, n := range []int64{1, 7, 100} {
			assert.Equal(t, 100.0, SuccessRate(n, n))
		}
	})

	t.Run("one failure among n+1", func(t *testing.T) {
		assert.InDelta(t, 100.0*9/10, SuccessRate(9, 10), 1e-9)
		assert.InDelta(t, 100.0*1/2, SuccessRate(1, 2), 1e-9)
	})

	t.Run("no executions yield zero", func(t *testing.T) {
		assert.Zero(t, SuccessRate(0, 0))
	})

	t.Run("rule method delegates to counters", func(t *testing.T) {
		r := &Rule{ExecutionCount: 4, SuccessCount: 3}
		assert.InDelta(t, 75.0, r.SuccessRate(), 1e-9)
	})
}

func TestRuleConditionsRoundTrip(t *testing.T) {
	r := &Rule{}

	conds := []Condition{
		{Type: ConditionConfidenceThreshold, Operator: OpGreaterThan, Value: 0.9},
		{Type: ConditionAgentType, Operator: OpEquals, Value: "trending_analysis"},
	}
	require.NoError(t, r.SetConditions(conds))

	decoded, err := r.Conditions()
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, ConditionConfidenceThreshold, decoded[0].Type)
	assert.Equal(t, OpGreaterThan, decoded[0].Operator)
	assert.Equal(t, 0.9, decoded[0].Value)
}

func TestRuleActionsRoundTrip(t *testing.T) {
	r := &Rule{}

	require.NoError(t, r.SetActions([]Action{
		{Type: ActionScheduleReview, DelayMinutes: 120},
		{Type: ActionNotifyAdmin, Parameters: map[string]interface{}{"message": "check this"}},
	}))

	decoded, err := r.Actions()
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, ActionScheduleReview, decoded[0].Type)
	assert.Equal(t, 120, decoded[0].DelayMinutes)
	assert.Equal(t, "check this", decoded[1].Parameters["message"])
}

func TestRuleEmptyJSON(t *testing.T) {
	r := &Rule{}

	conds, err := r.Conditions()
	require.NoError(t, err)
	assert.Empty(t, conds)

	actions, err := r.Actions()
	require.NoError(t, err)
	assert.Empty(t, actions)
}
