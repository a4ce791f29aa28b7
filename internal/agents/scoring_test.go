package agents

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
)

func TestConfidence(t *testing.T) {
	t.Run("single perfect factor", func(t *testing.T) {
		assert.InDelta(t, 1.0, Confidence(1.0), 1e-9)
	})

	t.Run("no factors", func(t *testing.T) {
		assert.Zero(t, Confidence())
	})

	t.Run("earlier factors dominate", func(t *testing.T) {
		strongFirst := Confidence(1.0, 0.0)
		weakFirst := Confidence(0.0, 1.0)

		assert.Greater(t, strongFirst, weakFirst)
		assert.Greater(t, strongFirst, 0.0)
		assert.Less(t, strongFirst, 1.0)
	})

	t.Run("stays in range", func(t *testing.T) {
		assert.LessOrEqual(t, Confidence(1, 1, 1, 1), 1.0)
		assert.GreaterOrEqual(t, Confidence(0, 0, 0), 0.0)
	})
}

func TestCalculatePriority(t *testing.T) {
	tests := []struct {
		name                        string
		urgency, impact, confidence float64
		want                        int
	}{
		{"critical at 0.8", 1.0, 0.9, 1.0, 1},
		{"critical boundary", 0.8, 1.0, 1.0, 1},
		{"high", 0.7, 1.0, 1.0, 2},
		{"medium", 0.5, 1.0, 0.9, 3},
		{"low", 0.5, 0.5, 1.0, 4},
		{"lowest below 0.2", 0.1, 0.5, 1.0, 5},
		{"zero", 0, 0, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculatePriority(tt.urgency, tt.impact, tt.confidence))
		})
	}
}

func rawSuggestion(conf float64, priority int) *suggestion.Suggestion {
	return &suggestion.Suggestion{
		ID:              uuid.New(),
		ConfidenceScore: conf,
		Priority:        priority,
		Status:          suggestion.StatusPending,
	}
}

func TestPostProcess(t *testing.T) {
	t.Run("conservative scales confidence down", func(t *testing.T) {
		cfg := Config{PriorityWeight: WeightConservative, ConfidenceThreshold: 0.1, MaxSuggestions: 10}
		out := PostProcess([]*suggestion.Suggestion{rawSuggestion(1.0, 1)}, cfg)

		assert.Len(t, out, 1)
		assert.InDelta(t, 0.8, out[0].ConfidenceScore, 1e-9)
	})

	t.Run("aggressive scales up and clamps", func(t *testing.T) {
		cfg := Config{PriorityWeight: WeightAggressive, ConfidenceThreshold: 0.1, MaxSuggestions: 10}
		out := PostProcess([]*suggestion.Suggestion{rawSuggestion(0.9, 1)}, cfg)

		assert.Len(t, out, 1)
		assert.InDelta(t, 1.0, out[0].ConfidenceScore, 1e-9)
	})

	t.Run("balanced is a no-op on confidence", func(t *testing.T) {
		cfg := Config{PriorityWeight: WeightBalanced, ConfidenceThreshold: 0.1, MaxSuggestions: 10}
		out := PostProcess([]*suggestion.Suggestion{rawSuggestion(0.75, 1)}, cfg)

		assert.Len(t, out, 1)
		assert.InDelta(t, 0.75, out[0].ConfidenceScore, 1e-9)
	})

	t.Run("threshold filters low confidence", func(t *testing.T) {
		cfg := Config{PriorityWeight: WeightBalanced, ConfidenceThreshold: 0.7, MaxSuggestions: 10}
		out := PostProcess([]*suggestion.Suggestion{
			rawSuggestion(0.9, 2),
			rawSuggestion(0.5, 1),
		}, cfg)

		assert.Len(t, out, 1)
		assert.InDelta(t, 0.9, out[0].ConfidenceScore, 1e-9)
	})

	t.Run("cap keeps top N by confidence times urgency", func(t *testing.T) {
		cfg := Config{PriorityWeight: WeightBalanced, ConfidenceThreshold: 0.1, MaxSuggestions: 2}

		keepA := rawSuggestion(0.9, 1) // rank 4.5
		keepB := rawSuggestion(0.8, 2) // rank 3.2
		drop := rawSuggestion(0.9, 5)  // rank 0.9

		out := PostProcess([]*suggestion.Suggestion{drop, keepB, keepA}, cfg)

		assert.Len(t, out, 2)
		assert.Equal(t, keepA.ID, out[0].ID)
		assert.Equal(t, keepB.ID, out[1].ID)
	})

	t.Run("urgency breaks confidence ties", func(t *testing.T) {
		cfg := Config{PriorityWeight: WeightBalanced, ConfidenceThreshold: 0.1, MaxSuggestions: 10}

		urgent := rawSuggestion(0.8, 1)
		relaxed := rawSuggestion(0.8, 4)

		out := PostProcess([]*suggestion.Suggestion{relaxed, urgent}, cfg)

		assert.Equal(t, urgent.ID, out[0].ID)
		assert.Equal(t, relaxed.ID, out[1].ID)
	})
}
