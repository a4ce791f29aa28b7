package workflow

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/adapters/kafka"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/workflow"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/metrics"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// Implementer is the external collaborator that applies an approved
// suggestion to the content system.
type Implementer interface {
	Implement(ctx context.Context, s *suggestion.Suggestion) error
}

// Notifier delivers admin notifications out-of-band (e.g. Telegram).
type Notifier interface {
	NotifySuggestion(ctx context.Context, s *suggestion.Suggestion, note string) error
}

// EventPublisher publishes workflow events to the event stream.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// Locker serializes rule counter updates across processes.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// Evaluator matches suggestions against enabled workflow rules and executes
// the actions of every applicable rule, recording executions and rolling
// success statistics.
type Evaluator struct {
	rules       workflow.RuleRepository
	execs       workflow.ExecutionRepository
	suggestions suggestion.Repository
	admin       workflow.AdminRepository
	implementer Implementer
	notifier    Notifier
	publisher   EventPublisher
	locker      Locker
	log         *logger.Logger
}

// Deps wires the evaluator's collaborators. Notifier, publisher and locker
// are optional; the rest are required.
type Deps struct {
	Rules       workflow.RuleRepository
	Executions  workflow.ExecutionRepository
	Suggestions suggestion.Repository
	Admin       workflow.AdminRepository
	Implementer Implementer
	Notifier    Notifier
	Publisher   EventPublisher
	Locker      Locker
}

// NewEvaluator creates a workflow rule evaluator.
func NewEvaluator(deps Deps) *Evaluator {
	return &Evaluator{
		rules:       deps.Rules,
		execs:       deps.Executions,
		suggestions: deps.Suggestions,
		admin:       deps.Admin,
		implementer: deps.Implementer,
		notifier:    deps.Notifier,
		publisher:   deps.Publisher,
		locker:      deps.Locker,
		log:         logger.Get().With("component", "workflow_evaluator"),
	}
}

// Evaluate runs every applicable enabled rule against the suggestion, in
// rule-priority-descending order, and returns the execution records. A rule
// failing does not stop later rules; per-rule errors live in the execution
// records.
func (e *Evaluator) Evaluate(ctx context.Context, s *suggestion.Suggestion) ([]*workflow.Execution, error) {
	if s == nil {
		return nil, errors.ErrInvalidInput
	}

	rules, err := e.rules.ListEnabled(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list enabled rules")
	}

	// Repository already orders by priority; sort again so the contract
	// holds for any implementation.
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	var executions []*workflow.Execution
	for _, rule := range rules {
		applicable, err := e.Matches(ctx, rule, s)
		if err != nil {
			e.log.Errorf("Skipping rule %q, condition parse failed: %v", rule.Name, err)
			continue
		}
		if !applicable {
			continue
		}

		exec := e.executeRule(ctx, rule, s)
		executions = append(executions, exec)
	}

	return executions, nil
}

// Matches reports whether every condition of the rule holds for the
// suggestion (logical AND).
func (e *Evaluator) Matches(ctx context.Context, rule *workflow.Rule, s *suggestion.Suggestion) (bool, error) {
	conds, err := rule.Conditions()
	if err != nil {
		return false, errors.Wrapf(err, "rule %s conditions", rule.ID)
	}

	for _, cond := range conds {
		if !e.evaluateCondition(ctx, cond, s) {
			return false, nil
		}
	}
	return true, nil
}

// evaluateCondition is the per-condition predicate.
func (e *Evaluator) evaluateCondition(ctx context.Context, cond workflow.Condition, s *suggestion.Suggestion) bool {
	switch cond.Type {
	case workflow.ConditionConfidenceThreshold:
		return compareFloat(s.ConfidenceScore, cond.Operator, toFloat(cond.Value))

	case workflow.ConditionAgentType:
		return compareString(s.AgentType, cond.Operator, toString(cond.Value))

	case workflow.ConditionSuggestionType:
		return compareString(s.TargetType, cond.Operator, toString(cond.Value))

	case workflow.ConditionTimeBased:
		hours := time.Since(s.CreatedAt).Hours()
		return compareFloat(hours, cond.Operator, toFloat(cond.Value))

	case workflow.ConditionApprovalHistory:
		// Evaluated against the historical approval rate (percent) for the
		// suggestion's (target_type, agent_type) pair. With too little
		// history or a failed lookup the condition passes, preserving the
		// legacy pass-through behavior.
		stats, err := e.suggestions.GetApprovalStats(ctx, s.TargetType, s.AgentType)
		if err != nil || stats.Total() <= 5 {
			return true
		}
		return compareFloat(stats.ApprovalRate()*100, cond.Operator, toFloat(cond.Value))

	default:
		e.log.Warnf("Unknown condition type %q treated as non-matching", cond.Type)
		return false
	}
}

// executeRule runs one applicable rule's actions against the suggestion and
// maintains the execution record and rule statistics.
func (e *Evaluator) executeRule(ctx context.Context, rule *workflow.Rule, s *suggestion.Suggestion) *workflow.Execution {
	exec := &workflow.Execution{
		ID:           uuid.New(),
		RuleID:       rule.ID,
		SuggestionID: s.ID,
		Status:       workflow.ExecutionPending,
		StartedAt:    time.Now(),
	}

	if err := e.execs.Create(ctx, exec); err != nil {
		e.log.Errorf("Failed to create execution record for rule %q: %v", rule.Name, err)
		exec.Status = workflow.ExecutionFailed
		exec.ErrorMessage = err.Error()
		return exec
	}

	_ = e.execs.UpdateStatus(ctx, exec.ID, workflow.ExecutionExecuting, "", "")
	exec.Status = workflow.ExecutionExecuting

	actions, err := rule.Actions()
	if err == nil {
		err = e.runActions(ctx, rule, s, actions)
	}

	now := time.Now()
	exec.CompletedAt = &now

	if err != nil {
		exec.Status = workflow.ExecutionFailed
		exec.ErrorMessage = err.Error()
		_ = e.execs.UpdateStatus(ctx, exec.ID, workflow.ExecutionFailed, "", err.Error())
		e.recordRuleStats(ctx, rule, false)
		metrics.RuleExecutions.WithLabelValues(rule.Name, "failed").Inc()
		e.log.Errorf("Rule %q failed on suggestion %s: %v", rule.Name, s.ID, err)
	} else {
		result := fmt.Sprintf("executed %d action(s)", len(actions))
		exec.Status = workflow.ExecutionCompleted
		exec.Result = result
		_ = e.execs.UpdateStatus(ctx, exec.ID, workflow.ExecutionCompleted, result, "")
		e.recordRuleStats(ctx, rule, true)
		metrics.RuleExecutions.WithLabelValues(rule.Name, "completed").Inc()
	}

	e.publishExecution(ctx, rule, exec)
	return exec
}

// runActions executes each action in listed order; the first failure aborts
// the remainder and fails the execution.
func (e *Evaluator) runActions(ctx context.Context, rule *workflow.Rule, s *suggestion.Suggestion, actions []workflow.Action) error {
	for _, action := range actions {
		if err := e.executeAction(ctx, rule, s, action); err != nil {
			metrics.ActionExecutions.WithLabelValues(string(action.Type), "failed").Inc()
			return errors.Wrapf(err, "action %s", action.Type)
		}
		metrics.ActionExecutions.WithLabelValues(string(action.Type), "completed").Inc()
	}
	return nil
}

// recordRuleStats increments the rule counters. The repository update is a
// single atomic statement; the lock additionally serializes concurrent
// evaluations of the same rule across processes.
func (e *Evaluator) recordRuleStats(ctx context.Context, rule *workflow.Rule, success bool) {
	lockKey := "workflow_rule:" + rule.ID.String()

	if e.locker != nil {
		acquired, err := e.locker.AcquireLock(ctx, lockKey, 5*time.Second)
		if err == nil && acquired {
			defer func() { _ = e.locker.ReleaseLock(ctx, lockKey) }()
		}
	}

	if err := e.rules.RecordExecution(ctx, rule.ID, success); err != nil {
		e.log.Errorf("Failed to record stats for rule %q: %v", rule.Name, err)
	}
}

func (e *Evaluator) publishExecution(ctx context.Context, rule *workflow.Rule, exec *workflow.Execution) {
	if e.publisher == nil {
		return
	}

	topic := kafka.TopicWorkflowExecution
	if exec.Status == workflow.ExecutionFailed {
		topic = kafka.TopicWorkflowFailure
	}

	event := map[string]interface{}{
		"execution_id":  exec.ID.String(),
		"rule_id":       rule.ID.String(),
		"rule_name":     rule.Name,
		"suggestion_id": exec.SuggestionID.String(),
		"status":        string(exec.Status),
		"error":         exec.ErrorMessage,
	}
	if err := e.publisher.Publish(ctx, topic, exec.ID.String(), event); err != nil {
		e.log.Warnf("Failed to publish execution event: %v", err)
	}
}

// Comparison helpers

func compareFloat(actual float64, op workflow.Operator, expected float64) bool {
	switch op {
	case workflow.OpGreaterThan:
		return actual > expected
	case workflow.OpLessThan:
		return actual < expected
	case workflow.OpEquals:
		return actual == expected
	case workflow.OpNotEquals:
		return actual != expected
	default:
		return false
	}
}

func compareString(actual string, op workflow.Operator, expected string) bool {
	switch op {
	case workflow.OpEquals:
		return actual == expected
	case workflow.OpNotEquals:
		return actual != expected
	case workflow.OpContains:
		return strings.Contains(actual, expected)
	case workflow.OpMatches:
		re, err := regexp.Compile(expected)
		if err != nil {
			return false
		}
		return re.MatchString(actual)
	default:
		return false
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		var f float64
		_, _ = fmt.Sscanf(n, "%g", &f)
		return f
	}
	return 0
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
