package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/workflow"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// WorkflowRuleRepository implements workflow.RuleRepository using PostgreSQL
type WorkflowRuleRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

var _ workflow.RuleRepository = (*WorkflowRuleRepository)(nil)

// NewWorkflowRuleRepository creates a new PostgreSQL workflow rule repository
func NewWorkflowRuleRepository(db *sqlx.DB) *WorkflowRuleRepository {
	return &WorkflowRuleRepository{
		db:  db,
		log: logger.Get().With("component", "workflow_rule_repository"),
	}
}

// Create persists a new rule
func (r *WorkflowRuleRepository) Create(ctx context.Context, rule *workflow.Rule) error {
	query := `
		INSERT INTO workflow_rules (
			id, name, conditions, actions, enabled, priority,
			execution_count, success_count, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.Name,
		rule.ConditionsJSON,
		rule.ActionsJSON,
		rule.Enabled,
		rule.Priority,
		rule.ExecutionCount,
		rule.SuccessCount,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create workflow rule")
	}

	return nil
}

// GetByID retrieves a rule
func (r *WorkflowRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*workflow.Rule, error) {
	query := `
		SELECT id, name, conditions, actions, enabled, priority,
		       execution_count, success_count, created_at, updated_at
		FROM workflow_rules
		WHERE id = $1
	`

	var rule workflow.Rule
	err := r.db.GetContext(ctx, &rule, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "workflow rule %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get workflow rule")
	}

	return &rule, nil
}

// ListEnabled retrieves enabled rules ordered by priority descending
func (r *WorkflowRuleRepository) ListEnabled(ctx context.Context) ([]*workflow.Rule, error) {
	query := `
		SELECT id, name, conditions, actions, enabled, priority,
		       execution_count, success_count, created_at, updated_at
		FROM workflow_rules
		WHERE enabled = TRUE
		ORDER BY priority DESC, created_at ASC
	`

	var rules []*workflow.Rule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, errors.Wrap(err, "failed to list enabled workflow rules")
	}

	return rules, nil
}

// List retrieves all rules
func (r *WorkflowRuleRepository) List(ctx context.Context) ([]*workflow.Rule, error) {
	query := `
		SELECT id, name, conditions, actions, enabled, priority,
		       execution_count, success_count, created_at, updated_at
		FROM workflow_rules
		ORDER BY priority DESC, created_at ASC
	`

	var rules []*workflow.Rule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, errors.Wrap(err, "failed to list workflow rules")
	}

	return rules, nil
}

// SetEnabled toggles a rule
func (r *WorkflowRuleRepository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	query := `
		UPDATE workflow_rules
		SET enabled = $2, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, enabled)
	if err != nil {
		return errors.Wrap(err, "failed to toggle workflow rule")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "workflow rule %s", id)
	}

	return nil
}

// Delete removes a rule
func (r *WorkflowRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM workflow_rules WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete workflow rule")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "workflow rule %s", id)
	}

	return nil
}

// RecordExecution atomically increments execution_count and, when the
// execution succeeded, success_count. The single UPDATE statement makes the
// read-modify-write safe under concurrent evaluation of the same rule.
func (r *WorkflowRuleRepository) RecordExecution(ctx context.Context, id uuid.UUID, success bool) error {
	query := `
		UPDATE workflow_rules
		SET execution_count = execution_count + 1,
		    success_count   = success_count + CASE WHEN $2 THEN 1 ELSE 0 END,
		    updated_at      = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, success)
	if err != nil {
		return errors.Wrap(err, "failed to record rule execution")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "workflow rule %s", id)
	}

	return nil
}
