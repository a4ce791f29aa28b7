package agents

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/content"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
)

// trendingWeights is the composite used to rank items for placement.
// Coefficients are tunable, not sacred; these are the production defaults.
var trendingWeights = content.MetricWeights{
	Trending:   0.4,
	Engagement: 0.3,
	Freshness:  0.2,
	Quality:    0.1,
}

// Ensure TrendingAgent implements Analyzer
var _ Analyzer = (*TrendingAgent)(nil)

// TrendingAgent proposes the strongest item for the hero placement and the
// next one or two for featured placement, ranked by a weighted composite of
// the trending, engagement, freshness and quality metrics.
type TrendingAgent struct {
	BaseAgent
}

// NewTrendingAgent creates a trending analysis agent.
func NewTrendingAgent(cfg Config) *TrendingAgent {
	return &TrendingAgent{BaseAgent: NewBaseAgent(TypeTrending, cfg)}
}

type scoredItem struct {
	item      *content.Item
	metrics   content.Metrics
	composite float64
}

// Analyze ranks published items and emits hero/featured suggestions.
func (a *TrendingAgent) Analyze(ctx context.Context, ac Context) ([]*suggestion.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := ac.Clock()
	peers := ac.PeerSet()
	cfg := a.Config()

	scored := make([]scoredItem, 0, len(ac.Items))
	for _, item := range ac.Items {
		if !item.IsPublished() || item.Views < cfg.MinViews {
			continue
		}
		m := content.ComputeMetrics(item, peers, now)
		scored = append(scored, scoredItem{
			item:      item,
			metrics:   m,
			composite: m.Composite(trendingWeights),
		})
	}

	if len(scored) == 0 {
		a.Log().Debug("No items above the minimum view threshold")
		return nil, nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].composite > scored[j].composite
	})

	var raw []*suggestion.Suggestion

	hero := scored[0]
	raw = append(raw, a.placementSuggestion(hero, suggestion.TargetHeroSection, 1.0, now, cfg))

	for i := 1; i < len(scored) && i <= 2; i++ {
		raw = append(raw, a.placementSuggestion(scored[i], suggestion.TargetFeaturedSection, 0.7, now, cfg))
	}

	return PostProcess(raw, cfg), nil
}

func (a *TrendingAgent) placementSuggestion(si scoredItem, target string, impact float64, now time.Time, cfg Config) *suggestion.Suggestion {
	m := si.metrics
	conf := Confidence(m.Trending, m.Engagement, m.Freshness, m.Quality)

	s := &suggestion.Suggestion{
		ID:              uuid.New(),
		AgentType:       TypeTrending,
		TargetType:      target,
		TargetID:        &si.item.ID,
		Reasoning: fmt.Sprintf(
			"%q is outperforming its peers: %s views, composite score %.2f (trending %.2f, engagement %.2f, freshness %.2f, quality %.2f)",
			si.item.Title, humanize.Comma(si.item.Views), si.composite,
			m.Trending, m.Engagement, m.Freshness, m.Quality,
		),
		ConfidenceScore: conf,
		Priority:        CalculatePriority(si.composite, impact, conf),
		Status:          suggestion.StatusPending,
		CreatedAt:       now,
		ExpiresAt:       expiry(now, cfg),
	}

	_ = s.SetData(map[string]interface{}{
		"article_id":      si.item.ID,
		"placement":       target,
		"composite_score": si.composite,
	})

	return s
}
