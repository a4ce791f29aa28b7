package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/workflow"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// AdminRepository implements workflow.AdminRepository using PostgreSQL
type AdminRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

var _ workflow.AdminRepository = (*AdminRepository)(nil)

// NewAdminRepository creates a new PostgreSQL admin records repository
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{
		db:  db,
		log: logger.Get().With("component", "admin_repository"),
	}
}

// InsertNotification stores an admin notification record
func (r *AdminRepository) InsertNotification(ctx context.Context, n *workflow.Notification) error {
	query := `
		INSERT INTO admin_notifications (id, suggestion_id, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.SuggestionID,
		n.Title,
		n.Message,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert notification")
	}

	return nil
}

// InsertReview stores a future-dated review record
func (r *AdminRepository) InsertReview(ctx context.Context, rec *workflow.ReviewSchedule) error {
	query := `
		INSERT INTO review_schedules (id, suggestion_id, scheduled_for, note, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.SuggestionID,
		rec.ScheduledFor,
		rec.Note,
		rec.Completed,
		rec.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert review schedule")
	}

	return nil
}

// InsertTask stores an admin task record
func (r *AdminRepository) InsertTask(ctx context.Context, t *workflow.AdminTask) error {
	query := `
		INSERT INTO admin_tasks (id, suggestion_id, title, description, priority, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.SuggestionID,
		t.Title,
		t.Description,
		t.Priority,
		t.Status,
		t.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert admin task")
	}

	return nil
}
