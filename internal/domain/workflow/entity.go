package workflow

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConditionType enumerates what a rule condition inspects on a suggestion.
type ConditionType string

const (
	ConditionConfidenceThreshold ConditionType = "confidence_threshold"
	ConditionAgentType           ConditionType = "agent_type"
	ConditionSuggestionType      ConditionType = "suggestion_type"
	ConditionApprovalHistory     ConditionType = "approval_history"
	ConditionTimeBased           ConditionType = "time_based"
)

// Operator enumerates comparison operators for conditions.
type Operator string

const (
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpMatches     Operator = "matches"
)

// Condition is a single predicate over a suggestion. All conditions of a
// rule must hold (logical AND) for the rule to apply.
type Condition struct {
	Type     ConditionType `json:"type"`
	Operator Operator      `json:"operator"`
	Value    interface{}   `json:"value"`
}

// ActionType enumerates side effects a rule may execute.
type ActionType string

const (
	ActionAutoApprove    ActionType = "auto_approve"
	ActionAutoImplement  ActionType = "auto_implement"
	ActionNotifyAdmin    ActionType = "notify_admin"
	ActionScheduleReview ActionType = "schedule_review"
	ActionCreateTask     ActionType = "create_task"
)

// Action describes one side effect executed when a rule matches.
type Action struct {
	Type         ActionType             `json:"type"`
	Parameters   map[string]interface{} `json:"parameters,omitempty"`
	DelayMinutes int                    `json:"delay_minutes,omitempty"`
}

// Rule is a declarative condition-set plus action-list pair that automates
// handling of matching suggestions. Counters are mutated only by the
// evaluator; both are monotonically non-decreasing.
type Rule struct {
	ID             uuid.UUID       `db:"id"`
	Name           string          `db:"name"`
	ConditionsJSON json.RawMessage `db:"conditions"`
	ActionsJSON    json.RawMessage `db:"actions"`
	Enabled        bool            `db:"enabled"`
	Priority       int             `db:"priority"`
	ExecutionCount int64           `db:"execution_count"`
	SuccessCount   int64           `db:"success_count"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// Conditions decodes the JSONB condition list.
func (r *Rule) Conditions() ([]Condition, error) {
	var conds []Condition
	if len(r.ConditionsJSON) == 0 {
		return conds, nil
	}
	if err := json.Unmarshal(r.ConditionsJSON, &conds); err != nil {
		return nil, err
	}
	return conds, nil
}

// SetConditions encodes the condition list to JSONB.
func (r *Rule) SetConditions(conds []Condition) error {
	data, err := json.Marshal(conds)
	if err != nil {
		return err
	}
	r.ConditionsJSON = data
	return nil
}

// Actions decodes the JSONB action list.
func (r *Rule) Actions() ([]Action, error) {
	var actions []Action
	if len(r.ActionsJSON) == 0 {
		return actions, nil
	}
	if err := json.Unmarshal(r.ActionsJSON, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// SetActions encodes the action list to JSONB.
func (r *Rule) SetActions(actions []Action) error {
	data, err := json.Marshal(actions)
	if err != nil {
		return err
	}
	r.ActionsJSON = data
	return nil
}

// SuccessRate returns successes/executions as a percentage in [0,100].
func (r *Rule) SuccessRate() float64 {
	return SuccessRate(r.SuccessCount, r.ExecutionCount)
}

// SuccessRate computes the rolling success percentage for rule statistics.
func SuccessRate(successes, executions int64) float64 {
	if executions == 0 {
		return 0
	}
	return float64(successes) / float64(executions) * 100
}

// ExecutionStatus tracks the lifecycle of one rule application.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionExecuting ExecutionStatus = "executing"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// Execution records one rule's attempt to act on one suggestion.
type Execution struct {
	ID           uuid.UUID       `db:"id"`
	RuleID       uuid.UUID       `db:"workflow_rule_id"`
	SuggestionID uuid.UUID       `db:"suggestion_id"`
	Status       ExecutionStatus `db:"status"`
	StartedAt    time.Time       `db:"started_at"`
	CompletedAt  *time.Time      `db:"completed_at"`
	Result       string          `db:"result"`
	ErrorMessage string          `db:"error_message"`
}
