package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/ai"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/content"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
)

// Ensure AIInsightsAgent implements Analyzer
var _ Analyzer = (*AIInsightsAgent)(nil)

// AIInsightsAgent delegates analysis to the AI collaborator: it embeds item
// metadata into a prompt and maps the structured JSON reply into
// suggestions. Collaborator failures degrade to an empty result.
type AIInsightsAgent struct {
	BaseAgent
	analyzer ai.Analyzer
}

// NewAIInsightsAgent creates an AI-delegated analysis agent. The analyzer
// collaborator is required.
func NewAIInsightsAgent(cfg Config, analyzer ai.Analyzer) (*AIInsightsAgent, error) {
	if analyzer == nil {
		return nil, errors.Wrap(errors.ErrNoModelConfigured, "ai_insights agent requires an AI analyzer")
	}
	return &AIInsightsAgent{
		BaseAgent: NewBaseAgent(TypeAIInsights, cfg),
		analyzer:  analyzer,
	}, nil
}

// Analyze asks the model for trending picks and a strategic prediction.
// Parse or API errors are logged and yield an empty suggestion list.
func (a *AIInsightsAgent) Analyze(ctx context.Context, ac Context) ([]*suggestion.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := ac.Clock()
	cfg := a.Config()

	published := make([]*content.Item, 0, len(ac.Items))
	for _, item := range ac.Items {
		if item.IsPublished() {
			published = append(published, item)
		}
	}
	if len(published) == 0 {
		return nil, nil
	}

	result, err := a.analyzer.AnalyzeJSON(ctx, a.buildPrompt(published, ac))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		a.Log().Warnf("AI analysis failed, returning no suggestions: %v", err)
		return nil, nil
	}

	var raw []*suggestion.Suggestion

	byID := make(map[int64]*content.Item, len(published))
	for _, item := range published {
		byID[item.ID] = item
	}

	for i, entry := range asSlice(result["trending_articles"]) {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		articleID := asInt64(fields["article_id"])
		item, known := byID[articleID]
		if !known {
			a.Log().Debugf("AI referenced unknown article %d, skipping", articleID)
			continue
		}

		target := suggestion.TargetFeaturedSection
		impact := 0.7
		if i == 0 {
			target = suggestion.TargetHeroSection
			impact = 1.0
		}

		conf := clamp01(asFloat(fields["confidence_score"]))
		reasoning := asString(fields["reasoning"])
		if reasoning == "" {
			reasoning = fmt.Sprintf("AI analysis picked %q as a trending article", item.Title)
		}

		s := &suggestion.Suggestion{
			ID:              uuid.New(),
			AgentType:       TypeAIInsights,
			TargetType:      target,
			TargetID:        &item.ID,
			Reasoning:       reasoning,
			ConfidenceScore: conf,
			Priority:        CalculatePriority(conf, impact, conf),
			Status:          suggestion.StatusPending,
			CreatedAt:       now,
			ExpiresAt:       expiry(now, cfg),
		}
		_ = s.SetData(map[string]interface{}{
			"article_id":       articleID,
			"placement":        target,
			"suggested_action": asString(fields["suggested_action"]),
		})
		raw = append(raw, s)
	}

	if predictions := asSlice(result["future_predictions"]); len(predictions) > 0 {
		if text := asString(predictions[0]); text != "" {
			conf := Confidence(0.6, 0.5)
			s := &suggestion.Suggestion{
				ID:              uuid.New(),
				AgentType:       TypeAIInsights,
				TargetType:      suggestion.TargetStrategicInsight,
				Reasoning:       text,
				ConfidenceScore: conf,
				Priority:        CalculatePriority(0.6, 0.9, conf),
				Status:          suggestion.StatusPending,
				CreatedAt:       now,
				ExpiresAt:       expiry(now, cfg),
			}
			_ = s.SetData(map[string]interface{}{"prediction": text})
			raw = append(raw, s)
		}
	}

	return PostProcess(raw, cfg), nil
}

func (a *AIInsightsAgent) buildPrompt(items []*content.Item, ac Context) string {
	var b strings.Builder

	b.WriteString("Analyze the following published articles and identify which are trending.\n")
	b.WriteString("Respond with JSON: {\"trending_articles\": [{\"article_id\", \"reasoning\", ")
	b.WriteString("\"confidence_score\", \"suggested_action\"}], \"future_predictions\": [\"...\"]}\n\nArticles:\n")

	now := ac.Clock()
	for _, item := range items {
		fmt.Fprintf(&b, "- id=%d title=%q category=%q views=%d age_days=%.0f excerpt_len=%d\n",
			item.ID, item.Title, item.Category, item.Views, item.AgeDays(now), len(item.Excerpt))
	}

	return b.String()
}

// JSON helper coercions for the loosely typed AI reply

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	}
	return 0
}
