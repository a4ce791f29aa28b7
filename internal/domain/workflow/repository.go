package workflow

import (
	"context"

	"github.com/google/uuid"
)

// RuleRepository defines persistence for workflow rules.
type RuleRepository interface {
	// Create persists a new rule
	Create(ctx context.Context, r *Rule) error

	// GetByID retrieves a rule
	GetByID(ctx context.Context, id uuid.UUID) (*Rule, error)

	// ListEnabled retrieves enabled rules ordered by priority descending
	ListEnabled(ctx context.Context) ([]*Rule, error)

	// List retrieves all rules
	List(ctx context.Context) ([]*Rule, error)

	// SetEnabled toggles a rule
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error

	// Delete removes a rule
	Delete(ctx context.Context, id uuid.UUID) error

	// RecordExecution atomically increments execution_count and, when the
	// execution succeeded, success_count. Must be safe under concurrent
	// evaluation of the same rule.
	RecordExecution(ctx context.Context, id uuid.UUID, success bool) error
}

// ExecutionRepository defines persistence for execution records.
type ExecutionRepository interface {
	// Create persists a new execution record
	Create(ctx context.Context, e *Execution) error

	// UpdateStatus transitions an execution, recording result or error
	UpdateStatus(ctx context.Context, id uuid.UUID, status ExecutionStatus, result, errMsg string) error

	// ListBySuggestion retrieves executions for a suggestion
	ListBySuggestion(ctx context.Context, suggestionID uuid.UUID) ([]*Execution, error)
}

// AdminRepository defines persistence for operator-facing records created
// by workflow actions.
type AdminRepository interface {
	InsertNotification(ctx context.Context, n *Notification) error
	InsertReview(ctx context.Context, r *ReviewSchedule) error
	InsertTask(ctx context.Context, t *AdminTask) error
}
