package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/workflow"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// WorkflowExecutionRepository implements workflow.ExecutionRepository using PostgreSQL
type WorkflowExecutionRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

var _ workflow.ExecutionRepository = (*WorkflowExecutionRepository)(nil)

// NewWorkflowExecutionRepository creates a new PostgreSQL execution repository
func NewWorkflowExecutionRepository(db *sqlx.DB) *WorkflowExecutionRepository {
	return &WorkflowExecutionRepository{
		db:  db,
		log: logger.Get().With("component", "workflow_execution_repository"),
	}
}

// Create persists a new execution record
func (r *WorkflowExecutionRepository) Create(ctx context.Context, e *workflow.Execution) error {
	query := `
		INSERT INTO workflow_executions (
			id, workflow_rule_id, suggestion_id, status,
			started_at, completed_at, result, error_message
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.RuleID,
		e.SuggestionID,
		e.Status,
		e.StartedAt,
		e.CompletedAt,
		e.Result,
		e.ErrorMessage,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create execution record")
	}

	return nil
}

// UpdateStatus transitions an execution, recording result or error. The
// completion timestamp is set only on terminal states.
func (r *WorkflowExecutionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status workflow.ExecutionStatus, result, errMsg string) error {
	query := `
		UPDATE workflow_executions
		SET status        = $2,
		    result        = $3,
		    error_message = $4,
		    completed_at  = CASE WHEN $2 IN ($5, $6) THEN NOW() ELSE completed_at END
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, status, result, errMsg,
		workflow.ExecutionCompleted, workflow.ExecutionFailed)
	if err != nil {
		return errors.Wrap(err, "failed to update execution status")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "execution %s", id)
	}

	return nil
}

// ListBySuggestion retrieves executions for a suggestion
func (r *WorkflowExecutionRepository) ListBySuggestion(ctx context.Context, suggestionID uuid.UUID) ([]*workflow.Execution, error) {
	query := `
		SELECT id, workflow_rule_id, suggestion_id, status,
		       started_at, completed_at, result, error_message
		FROM workflow_executions
		WHERE suggestion_id = $1
		ORDER BY started_at ASC
	`

	var out []*workflow.Execution
	if err := r.db.SelectContext(ctx, &out, query, suggestionID); err != nil {
		return nil, errors.Wrap(err, "failed to list executions")
	}

	return out, nil
}
