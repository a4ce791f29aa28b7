package suggestion

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyToData(t *testing.T) {
	t.Run("encodes the enhancement block", func(t *testing.T) {
		enh := &Enhanced{
			Suggestion: Suggestion{
				ID:         uuid.New(),
				AgentType:  "trending_analysis",
				TargetType: TargetHeroSection,
			},
			PotentialRisks:           []string{"hero churn"},
			AlternativeApproaches:    []string{"feature it first"},
			ImplementationComplexity: LevelLow,
			ExpectedImpact:           LevelHigh,
			RelatedSuggestions:       []string{uuid.NewString()},
		}
		enh.AddStep(ReasoningStep{Step: "initial analysis", Confidence: 0.9, Weight: 1})

		require.NoError(t, enh.ApplyToData())

		data, err := enh.GetData()
		require.NoError(t, err)

		block, ok := data["enhancement"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, LevelLow, block["implementation_complexity"])
		assert.Equal(t, LevelHigh, block["expected_impact"])

		risks, ok := block["potential_risks"].([]interface{})
		require.True(t, ok)
		require.Len(t, risks, 1)
		assert.Equal(t, "hero churn", risks[0])

		steps, ok := block["reasoning_steps"].([]interface{})
		require.True(t, ok)
		require.Len(t, steps, 1)
		step := steps[0].(map[string]interface{})
		assert.Equal(t, "initial analysis", step["step"])
	})

	t.Run("preserves existing payload keys", func(t *testing.T) {
		enh := &Enhanced{ExpectedImpact: LevelMedium}
		require.NoError(t, enh.SetData(map[string]interface{}{
			"placement": "hero",
			"action":    "promote",
		}))

		require.NoError(t, enh.ApplyToData())

		data, err := enh.GetData()
		require.NoError(t, err)
		assert.Equal(t, "hero", data["placement"])
		assert.Equal(t, "promote", data["action"])
		assert.Contains(t, data, "enhancement")
	})
}

func TestSuggestionLifecycleHelpers(t *testing.T) {
	now := time.Now()

	t.Run("expiry", func(t *testing.T) {
		past := now.Add(-time.Hour)
		s := &Suggestion{ExpiresAt: &past}
		assert.True(t, s.IsExpired(now))

		s.ExpiresAt = nil
		assert.False(t, s.IsExpired(now))
	})

	t.Run("terminal states", func(t *testing.T) {
		assert.False(t, (&Suggestion{Status: StatusPending}).IsTerminal())
		assert.False(t, (&Suggestion{Status: StatusApproved}).IsTerminal())
		assert.True(t, (&Suggestion{Status: StatusRejected}).IsTerminal())
		assert.True(t, (&Suggestion{Status: StatusImplemented}).IsTerminal())
	})
}
