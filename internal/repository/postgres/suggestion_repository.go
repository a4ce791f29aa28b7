package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// SuggestionRepository implements suggestion.Repository using PostgreSQL
type SuggestionRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

var _ suggestion.Repository = (*SuggestionRepository)(nil)

// NewSuggestionRepository creates a new PostgreSQL suggestion repository
func NewSuggestionRepository(db *sqlx.DB) *SuggestionRepository {
	return &SuggestionRepository{
		db:  db,
		log: logger.Get().With("component", "suggestion_repository"),
	}
}

// Create persists a new suggestion
func (r *SuggestionRepository) Create(ctx context.Context, s *suggestion.Suggestion) error {
	query := `
		INSERT INTO agent_suggestions (
			id, agent_type, target_type, target_id, suggestion_data,
			reasoning, confidence_score, priority, status, status_note,
			created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.AgentType,
		s.TargetType,
		s.TargetID,
		s.Data,
		s.Reasoning,
		s.ConfidenceScore,
		s.Priority,
		s.Status,
		s.StatusNote,
		s.CreatedAt,
		s.ExpiresAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create suggestion")
	}

	return nil
}

// GetByID retrieves a suggestion
func (r *SuggestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*suggestion.Suggestion, error) {
	query := `
		SELECT id, agent_type, target_type, target_id, suggestion_data,
		       reasoning, confidence_score, priority, status, status_note,
		       created_at, expires_at
		FROM agent_suggestions
		WHERE id = $1
	`

	var s suggestion.Suggestion
	err := r.db.GetContext(ctx, &s, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "suggestion %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get suggestion")
	}

	return &s, nil
}

// UpdateStatus applies a status transition with an audit note
func (r *SuggestionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status suggestion.Status, note string) error {
	query := `
		UPDATE agent_suggestions
		SET status = $2, status_note = $3
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, status, note)
	if err != nil {
		return errors.Wrap(err, "failed to update suggestion status")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(errors.ErrNotFound, "suggestion %s", id)
	}

	return nil
}

// ListPending retrieves non-terminal, non-expired suggestions
func (r *SuggestionRepository) ListPending(ctx context.Context, limit int) ([]*suggestion.Suggestion, error) {
	query := `
		SELECT id, agent_type, target_type, target_id, suggestion_data,
		       reasoning, confidence_score, priority, status, status_note,
		       created_at, expires_at
		FROM agent_suggestions
		WHERE status = $1
		  AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY priority ASC, confidence_score DESC
		LIMIT $2
	`

	var out []*suggestion.Suggestion
	if err := r.db.SelectContext(ctx, &out, query, suggestion.StatusPending, limit); err != nil {
		return nil, errors.Wrap(err, "failed to list pending suggestions")
	}

	return out, nil
}

// ListByTarget retrieves suggestions addressing the same target, optionally
// excluding one agent type (for collaboration lookups)
func (r *SuggestionRepository) ListByTarget(ctx context.Context, targetType string, targetID *int64, excludeAgent string) ([]*suggestion.Suggestion, error) {
	query := `
		SELECT id, agent_type, target_type, target_id, suggestion_data,
		       reasoning, confidence_score, priority, status, status_note,
		       created_at, expires_at
		FROM agent_suggestions
		WHERE target_type = $1
		  AND (target_id = $2 OR ($2 IS NULL AND target_id IS NULL))
		  AND ($3 = '' OR agent_type <> $3)
		ORDER BY created_at DESC
	`

	var out []*suggestion.Suggestion
	if err := r.db.SelectContext(ctx, &out, query, targetType, targetID, excludeAgent); err != nil {
		return nil, errors.Wrap(err, "failed to list suggestions by target")
	}

	return out, nil
}

// GetApprovalStats aggregates historical review outcomes for a
// (target_type, agent_type) pair
func (r *SuggestionRepository) GetApprovalStats(ctx context.Context, targetType, agentType string) (suggestion.ApprovalStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status IN ($3, $4)) AS approved,
			COUNT(*) FILTER (WHERE status = $5)        AS rejected
		FROM agent_suggestions
		WHERE target_type = $1 AND agent_type = $2
	`

	var stats suggestion.ApprovalStats
	err := r.db.GetContext(ctx, &stats, query,
		targetType,
		agentType,
		suggestion.StatusApproved,
		suggestion.StatusImplemented,
		suggestion.StatusRejected,
	)
	if err != nil {
		return suggestion.ApprovalStats{}, errors.Wrap(err, "failed to get approval stats")
	}

	return stats, nil
}

// DeleteExpired removes suggestions past their expiry, returning the count
func (r *SuggestionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM agent_suggestions
		WHERE expires_at IS NOT NULL
		  AND expires_at <= $1
		  AND status = $2
	`

	res, err := r.db.ExecContext(ctx, query, now, suggestion.StatusPending)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired suggestions")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count deleted suggestions")
	}

	if n > 0 {
		r.log.Info("Expired suggestions removed", "count", n)
	}
	return n, nil
}
