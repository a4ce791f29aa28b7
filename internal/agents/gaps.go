package agents

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/content"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
)

// healthWeights scores how well an aging item is still holding up.
var healthWeights = content.MetricWeights{
	Quality:    0.4,
	Engagement: 0.2,
	SEO:        0.2,
	Freshness:  0.2,
}

// Portion of the portfolio that may be stale before a strategic refresh
// suggestion is raised, and the age at which an item counts as stale.
const (
	stalePortfolioRatio = 0.3
	staleAgeDays        = 180
)

// Ensure ContentGapAgent implements Analyzer
var _ Analyzer = (*ContentGapAgent)(nil)

// ContentGapAgent flags aging items whose composite health has dropped
// below the configured threshold, and raises a portfolio-level strategic
// suggestion when too much of the catalog has gone stale.
type ContentGapAgent struct {
	BaseAgent
}

// NewContentGapAgent creates a content gap detection agent.
func NewContentGapAgent(cfg Config) *ContentGapAgent {
	return &ContentGapAgent{BaseAgent: NewBaseAgent(TypeContentGap, cfg)}
}

// Analyze emits one refresh suggestion per flagged item plus at most one
// strategic portfolio suggestion.
func (a *ContentGapAgent) Analyze(ctx context.Context, ac Context) ([]*suggestion.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := ac.Clock()
	peers := ac.PeerSet()
	cfg := a.Config()

	type gap struct {
		item   *content.Item
		health float64
		age    float64
	}

	var gaps []gap
	var staleCount, published int

	for _, item := range ac.Items {
		if !item.IsPublished() {
			continue
		}
		published++

		age := item.AgeDays(now)
		if age > staleAgeDays {
			staleCount++
		}
		if age <= cfg.FreshnessThresholdDays {
			continue
		}

		health := content.ComputeMetrics(item, peers, now).Composite(healthWeights)
		if health < cfg.QualityThreshold {
			gaps = append(gaps, gap{item: item, health: health, age: age})
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].health < gaps[j].health
	})

	var raw []*suggestion.Suggestion
	for _, g := range gaps {
		severity := clamp01(1 - g.health)
		staleness := clamp01(g.age / staleAgeDays)
		conf := Confidence(severity, staleness)

		s := &suggestion.Suggestion{
			ID:          uuid.New(),
			AgentType:   TypeContentGap,
			TargetType:  suggestion.TargetArticle,
			TargetID:    &g.item.ID,
			Reasoning: fmt.Sprintf(
				"%q is %.0f days old with a health score of %.2f (threshold %.2f); it needs a content refresh",
				g.item.Title, g.age, g.health, cfg.QualityThreshold,
			),
			ConfidenceScore: conf,
			Priority:        CalculatePriority(severity, 0.6, conf),
			Status:          suggestion.StatusPending,
			CreatedAt:       now,
			ExpiresAt:       expiry(now, cfg),
		}
		_ = s.SetData(map[string]interface{}{
			"article_id":   g.item.ID,
			"health_score": g.health,
			"age_days":     g.age,
			"action":       "refresh_content",
		})
		raw = append(raw, s)
	}

	if published > 0 {
		ratio := float64(staleCount) / float64(published)
		if ratio > stalePortfolioRatio {
			raw = append(raw, a.strategicSuggestion(staleCount, published, ratio, now, cfg))
		}
	}

	return PostProcess(raw, cfg), nil
}

func (a *ContentGapAgent) strategicSuggestion(stale, total int, ratio float64, now time.Time, cfg Config) *suggestion.Suggestion {
	conf := Confidence(clamp01(ratio*2), 0.8)

	s := &suggestion.Suggestion{
		ID:         uuid.New(),
		AgentType:  TypeContentGap,
		TargetType: suggestion.TargetStrategicInsight,
		Reasoning: fmt.Sprintf(
			"%d of %d published articles (%.0f%%) are older than %d days; the portfolio needs a systematic refresh plan",
			stale, total, ratio*100, staleAgeDays,
		),
		ConfidenceScore: conf,
		Priority:        CalculatePriority(ratio, 0.9, conf),
		Status:          suggestion.StatusPending,
		CreatedAt:       now,
		ExpiresAt:       expiry(now, cfg),
	}
	_ = s.SetData(map[string]interface{}{
		"stale_count": stale,
		"total_count": total,
		"stale_ratio": ratio,
		"action":      "portfolio_refresh_plan",
	})
	return s
}
