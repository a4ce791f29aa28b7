package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/content"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/logger"
)

// ContentRepository implements content.Repository using PostgreSQL
type ContentRepository struct {
	db  *sqlx.DB
	log *logger.Logger
}

var _ content.Repository = (*ContentRepository)(nil)

// NewContentRepository creates a new PostgreSQL content repository
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{
		db:  db,
		log: logger.Get().With("component", "content_repository"),
	}
}

// List retrieves items matching the filter, newest first
func (r *ContentRepository) List(ctx context.Context, filter content.Filter) ([]*content.Item, error) {
	var (
		clauses []string
		args    []interface{}
	)

	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}

	query := `
		SELECT id, title, content, excerpt, category, status, views, image_url, created_at
		FROM articles
	`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var items []*content.Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list articles")
	}

	return items, nil
}

// GetByID retrieves a single item
func (r *ContentRepository) GetByID(ctx context.Context, id int64) (*content.Item, error) {
	query := `
		SELECT id, title, content, excerpt, category, status, views, image_url, created_at
		FROM articles
		WHERE id = $1
	`

	var item content.Item
	err := r.db.GetContext(ctx, &item, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "article %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get article")
	}

	return &item, nil
}
