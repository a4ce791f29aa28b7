package agents

import (
	"sort"
	"time"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
)

// Confidence aggregates an ordered list of contributing factors into a
// single [0,1] score. Factor i is weighted 1/(i+1), so earlier factors
// dominate.
func Confidence(factors ...float64) float64 {
	if len(factors) == 0 {
		return 0
	}

	var weightedSum, totalWeight float64
	for i, f := range factors {
		w := 1.0 / float64(i+1)
		weightedSum += f * w
		totalWeight += w
	}

	return clamp01(weightedSum / totalWeight)
}

// CalculatePriority buckets urgency*impact*confidence into a 1 (critical)
// to 5 (low) priority.
func CalculatePriority(urgency, impact, confidence float64) int {
	score := urgency * impact * confidence
	switch {
	case score >= 0.8:
		return 1
	case score >= 0.6:
		return 2
	case score >= 0.4:
		return 3
	case score >= 0.2:
		return 4
	default:
		return 5
	}
}

// PostProcess applies the agent-level adjustments after raw suggestion
// generation: priority-weight confidence scaling, confidence threshold
// filtering, and a top-N cap ranked by confidence*(6-priority).
func PostProcess(raw []*suggestion.Suggestion, cfg Config) []*suggestion.Suggestion {
	out := make([]*suggestion.Suggestion, 0, len(raw))

	for _, s := range raw {
		switch cfg.PriorityWeight {
		case WeightConservative:
			s.ConfidenceScore = clamp01(s.ConfidenceScore * 0.8)
		case WeightAggressive:
			s.ConfidenceScore = clamp01(s.ConfidenceScore * 1.2)
		}

		if s.ConfidenceScore < cfg.ConfidenceThreshold {
			continue
		}
		out = append(out, s)
	}

	// Rank favors urgency at equal confidence
	sort.SliceStable(out, func(i, j int) bool {
		return rankScore(out[i]) > rankScore(out[j])
	})

	if cfg.MaxSuggestions > 0 && len(out) > cfg.MaxSuggestions {
		out = out[:cfg.MaxSuggestions]
	}

	return out
}

func rankScore(s *suggestion.Suggestion) float64 {
	return s.ConfidenceScore * float64(6-s.Priority)
}

// expiry returns the expires_at pointer for a suggestion created now.
func expiry(now time.Time, cfg Config) *time.Time {
	if cfg.SuggestionTTLHours <= 0 {
		return nil
	}
	t := now.Add(time.Duration(cfg.SuggestionTTLHours) * time.Hour)
	return &t
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
