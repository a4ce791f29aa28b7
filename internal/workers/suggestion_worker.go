package workers

import (
	"context"
	"time"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/kafka"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/agents"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/content"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/workflow"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/metrics"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/queue"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
)

// batchSize caps how many items one analysis pass reads.
const batchSize = 200

// Evaluator runs workflow rules against a freshly persisted suggestion.
type Evaluator interface {
	Evaluate(ctx context.Context, s *suggestion.Suggestion) ([]*workflow.Execution, error)
}

// EventPublisher publishes suggestion lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// SuggestionWorker periodically runs every registered agent over the current
// content batch, enhances and persists the resulting suggestions, and feeds
// each one through the workflow rule evaluator. Agent runs go through the
// task queue so concurrency and retries are centrally bounded.
type SuggestionWorker struct {
	*BaseWorker

	contentRepo content.Repository
	suggRepo    suggestion.Repository
	registry    *agents.Registry
	enhancer    *agents.Enhancer
	evaluator   Evaluator
	tasks       *queue.Queue
	publisher   EventPublisher
}

// SuggestionWorkerDeps wires the worker's collaborators.
type SuggestionWorkerDeps struct {
	ContentRepo content.Repository
	SuggRepo    suggestion.Repository
	Registry    *agents.Registry
	Enhancer    *agents.Enhancer
	Evaluator   Evaluator
	Tasks       *queue.Queue
	Publisher   EventPublisher
}

// NewSuggestionWorker creates the suggestion pipeline worker.
func NewSuggestionWorker(deps SuggestionWorkerDeps, interval time.Duration, enabled bool) *SuggestionWorker {
	return &SuggestionWorker{
		BaseWorker:  NewBaseWorker("suggestion_pipeline", interval, enabled),
		contentRepo: deps.ContentRepo,
		suggRepo:    deps.SuggRepo,
		registry:    deps.Registry,
		enhancer:    deps.Enhancer,
		evaluator:   deps.Evaluator,
		tasks:       deps.Tasks,
		publisher:   deps.Publisher,
	}
}

// Run enqueues one analysis task per live agent for the current batch.
func (w *SuggestionWorker) Run(ctx context.Context) error {
	items, err := w.contentRepo.List(ctx, content.Filter{
		Status: content.StatusPublished,
		Limit:  batchSize,
	})
	if err != nil {
		return errors.Wrap(err, "list published items")
	}
	if len(items) == 0 {
		w.Log().Debug("No published items, skipping analysis pass")
		return nil
	}

	ac := agents.Context{
		Items: items,
		Now:   time.Now(),
	}

	live := w.registry.Agents()
	if len(live) == 0 {
		w.Log().Warn("No agents registered, skipping analysis pass")
		return nil
	}

	for _, agent := range live {
		agent := agent
		_, err := w.tasks.Enqueue(&queue.Task{
			AgentName: agent.Type(),
			Priority:  taskPriority(agent.Type()),
			Execute: func(taskCtx context.Context) error {
				return w.runAgent(taskCtx, agent, ac)
			},
		})
		if err != nil {
			w.Log().Errorf("Failed to enqueue agent %s: %v", agent.Type(), err)
		}
	}

	return nil
}

// runAgent executes one agent pass and pushes its output down the pipeline.
func (w *SuggestionWorker) runAgent(ctx context.Context, agent agents.Analyzer, ac agents.Context) error {
	start := time.Now()

	raw, err := agent.Analyze(ctx, ac)
	metrics.AgentDuration.WithLabelValues(agent.Type()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AgentRuns.WithLabelValues(agent.Type(), "error").Inc()
		return errors.Wrapf(err, "agent %s", agent.Type())
	}
	metrics.AgentRuns.WithLabelValues(agent.Type(), "success").Inc()

	if len(raw) == 0 {
		return nil
	}

	enhanced := w.enhancer.Enhance(ctx, raw)
	for _, enh := range enhanced {
		if err := w.persistAndEvaluate(ctx, enh); err != nil {
			w.Log().Errorf("Failed to process suggestion from %s: %v", agent.Type(), err)
		}
	}

	return nil
}

func (w *SuggestionWorker) persistAndEvaluate(ctx context.Context, enh *suggestion.Enhanced) error {
	if err := enh.ApplyToData(); err != nil {
		return errors.Wrap(err, "encode enhancement payload")
	}
	s := &enh.Suggestion

	if err := w.suggRepo.Create(ctx, s); err != nil {
		return errors.Wrap(err, "persist suggestion")
	}
	metrics.SuggestionsProduced.WithLabelValues(s.AgentType, s.TargetType).Inc()

	if w.publisher != nil {
		event := map[string]interface{}{
			"suggestion_id": s.ID.String(),
			"agent_type":    s.AgentType,
			"target_type":   s.TargetType,
			"confidence":    s.ConfidenceScore,
			"priority":      s.Priority,
		}
		if err := w.publisher.Publish(ctx, kafka.TopicSuggestionCreated, s.ID.String(), event); err != nil {
			w.Log().Warnf("Failed to publish suggestion event: %v", err)
		}
	}

	if _, err := w.evaluator.Evaluate(ctx, s); err != nil {
		return errors.Wrap(err, "evaluate workflow rules")
	}

	return nil
}

// taskPriority maps agent types to queue tiers. AI-backed analysis is the
// slowest and least urgent; trending placement drives the homepage.
func taskPriority(agentType string) queue.Priority {
	switch agentType {
	case agents.TypeTrending:
		return queue.PriorityHigh
	case agents.TypeAIInsights:
		return queue.PriorityLow
	default:
		return queue.PriorityMedium
	}
}
