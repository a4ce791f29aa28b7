package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// Collaboration boost caps: 0.1 per agreeing agent, at most 0.2 total.
const (
	collabBoostPerMatch = 0.1
	collabBoostMax      = 0.2
)

// Learning adjustment thresholds over historical approval outcomes.
const (
	learnMinObservations = 5
	learnHighApproval    = 0.8
	learnLowApproval     = 0.4
	learnNudge           = 0.1
)

// riskProfile holds the static risk/alternative knowledge for a target type.
type riskProfile struct {
	risks        []string
	alternatives []string
	complexity   string
	impact       string
}

// riskProfiles is a lookup table, not an AI call.
var riskProfiles = map[string]riskProfile{
	suggestion.TargetHeroSection: {
		risks: []string{
			"replacing the hero dilutes visibility of the current top story",
			"hero placement draws extra scrutiny; weak content there hurts trust",
		},
		alternatives: []string{
			"feature the article in the secondary slot first and watch engagement",
			"run the change during low-traffic hours and compare view deltas",
		},
		complexity: suggestion.LevelLow,
		impact:     suggestion.LevelHigh,
	},
	suggestion.TargetFeaturedSection: {
		risks: []string{
			"rotating featured items too often reduces recognition of evergreen pieces",
		},
		alternatives: []string{
			"keep one stable featured slot and rotate only the others",
		},
		complexity: suggestion.LevelLow,
		impact:     suggestion.LevelMedium,
	},
	suggestion.TargetArticle: {
		risks: []string{
			"rewriting established content can drop existing search rankings",
			"changes may break reader expectations set by inbound links",
		},
		alternatives: []string{
			"append an update section instead of rewriting",
			"refresh metadata and images before touching body copy",
		},
		complexity: suggestion.LevelMedium,
		impact:     suggestion.LevelMedium,
	},
	suggestion.TargetSEOImprovement: {
		risks: []string{
			"auto-generated excerpts can misrepresent the article's angle",
		},
		alternatives: []string{
			"queue the generated excerpt for editorial review instead of publishing directly",
		},
		complexity: suggestion.LevelLow,
		impact:     suggestion.LevelMedium,
	},
	suggestion.TargetStrategicInsight: {
		risks: []string{
			"portfolio-level changes are slow to show results and hard to attribute",
		},
		alternatives: []string{
			"pilot the strategy on a single category before rolling out",
		},
		complexity: suggestion.LevelHigh,
		impact:     suggestion.LevelHigh,
	},
}

// StatsCache caches approval statistics between enhancement passes.
type StatsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// statsCacheTTL keeps per-suggestion stats lookups off the database while
// letting fresh review outcomes show up within minutes.
const statsCacheTTL = 10 * time.Minute

// Enhancer decorates raw suggestions with structured reasoning, boosts
// confidence when independent agents agree on a target, and nudges
// confidence based on historical approval outcomes.
type Enhancer struct {
	repo  suggestion.Repository
	cache StatsCache
	log   *logger.Logger
}

// NewEnhancer creates an enhancer backed by the suggestion store. The cache
// is optional; without it every stats lookup hits the store.
func NewEnhancer(repo suggestion.Repository, cache StatsCache) *Enhancer {
	return &Enhancer{
		repo:  repo,
		cache: cache,
		log:   logger.Get().With("component", "enhancer"),
	}
}

// Enhance decorates a batch of suggestions. Lookup failures downgrade to
// plain decoration; they never drop a suggestion.
func (e *Enhancer) Enhance(ctx context.Context, raw []*suggestion.Suggestion) []*suggestion.Enhanced {
	out := make([]*suggestion.Enhanced, 0, len(raw))
	for _, s := range raw {
		enh := e.decorate(s)
		e.applyCollaborationBoost(ctx, enh)
		e.applyLearningAdjustment(ctx, enh)
		out = append(out, enh)
	}
	return out
}

// decorate attaches the static risk/alternative profile and the initial
// reasoning step.
func (e *Enhancer) decorate(s *suggestion.Suggestion) *suggestion.Enhanced {
	enh := &suggestion.Enhanced{
		Suggestion:               *s,
		ImplementationComplexity: suggestion.LevelMedium,
		ExpectedImpact:           suggestion.LevelMedium,
	}

	if profile, ok := riskProfiles[s.TargetType]; ok {
		enh.PotentialRisks = profile.risks
		enh.AlternativeApproaches = profile.alternatives
		enh.ImplementationComplexity = profile.complexity
		enh.ExpectedImpact = profile.impact
	}

	enh.AddStep(suggestion.ReasoningStep{
		Step:       "initial analysis",
		Evidence:   []string{s.Reasoning},
		Confidence: s.ConfidenceScore,
		Weight:     1.0,
	})

	return enh
}

// applyCollaborationBoost raises confidence when other agents produced
// suggestions for the same target.
func (e *Enhancer) applyCollaborationBoost(ctx context.Context, enh *suggestion.Enhanced) {
	peers, err := e.repo.ListByTarget(ctx, enh.TargetType, enh.TargetID, enh.AgentType)
	if err != nil {
		e.log.Warnf("Collaboration lookup failed for %s: %v", enh.TargetType, err)
		return
	}
	if len(peers) == 0 {
		return
	}

	boost := collabBoostPerMatch * float64(len(peers))
	if boost > collabBoostMax {
		boost = collabBoostMax
	}
	enh.ConfidenceScore = clamp01(enh.ConfidenceScore + boost)

	agents := make([]string, 0, len(peers))
	for _, p := range peers {
		agents = append(agents, p.AgentType)
	}
	enh.RelatedSuggestions = relatedIDs(peers)

	enh.AddStep(suggestion.ReasoningStep{
		Step:       "cross-agent consensus",
		Evidence:   []string{fmt.Sprintf("%d other agent suggestion(s) target the same %s: %v", len(peers), enh.TargetType, agents)},
		Confidence: enh.ConfidenceScore,
		Weight:     boost,
	})
}

// applyLearningAdjustment nudges confidence based on how suggestions of
// this (target, agent) pair fared in past reviews.
func (e *Enhancer) applyLearningAdjustment(ctx context.Context, enh *suggestion.Enhanced) {
	stats, err := e.approvalStats(ctx, enh.TargetType, enh.AgentType)
	if err != nil {
		e.log.Warnf("Approval history lookup failed for %s/%s: %v", enh.TargetType, enh.AgentType, err)
		return
	}
	if stats.Total() <= learnMinObservations {
		return
	}

	rate := stats.ApprovalRate()
	var delta float64
	switch {
	case rate > learnHighApproval:
		delta = learnNudge
	case rate < learnLowApproval:
		delta = -learnNudge
	default:
		return
	}

	enh.ConfidenceScore = clamp01(enh.ConfidenceScore + delta)

	enh.AddStep(suggestion.ReasoningStep{
		Step: "historical feedback",
		Evidence: []string{fmt.Sprintf(
			"%.0f%% of %d past %s suggestions by %s were approved",
			rate*100, stats.Total(), enh.TargetType, enh.AgentType,
		)},
		Confidence: enh.ConfidenceScore,
		Weight:     delta,
	})
}

// approvalStats is a read-through over the stats cache.
func (e *Enhancer) approvalStats(ctx context.Context, targetType, agentType string) (suggestion.ApprovalStats, error) {
	key := "approval_stats:" + targetType + ":" + agentType

	if e.cache != nil {
		var cached suggestion.ApprovalStats
		if err := e.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	stats, err := e.repo.GetApprovalStats(ctx, targetType, agentType)
	if err != nil {
		return suggestion.ApprovalStats{}, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, stats, statsCacheTTL); err != nil {
			e.log.Debugf("Stats cache write failed for %s: %v", key, err)
		}
	}
	return stats, nil
}

func relatedIDs(peers []*suggestion.Suggestion) []string {
	ids := make([]string, 0, len(peers))
	for _, p := range peers {
		ids = append(ids, p.ID.String())
	}
	return ids
}
