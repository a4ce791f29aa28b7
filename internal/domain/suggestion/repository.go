package suggestion

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ApprovalStats aggregates historical review outcomes for a
// (target_type, agent_type) pair. Used by the learning adjustment and the
// approval_history workflow condition.
type ApprovalStats struct {
	Approved int `db:"approved"`
	Rejected int `db:"rejected"`
}

// Total returns the number of observations.
func (a ApprovalStats) Total() int {
	return a.Approved + a.Rejected
}

// ApprovalRate returns the fraction of approved outcomes, or 0 with no data.
func (a ApprovalStats) ApprovalRate() float64 {
	if a.Total() == 0 {
		return 0
	}
	return float64(a.Approved) / float64(a.Total())
}

// Repository defines persistence for suggestions.
type Repository interface {
	// Create persists a new suggestion
	Create(ctx context.Context, s *Suggestion) error

	// GetByID retrieves a suggestion
	GetByID(ctx context.Context, id uuid.UUID) (*Suggestion, error)

	// UpdateStatus applies a status transition with an audit note
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, note string) error

	// ListPending retrieves non-terminal, non-expired suggestions
	ListPending(ctx context.Context, limit int) ([]*Suggestion, error)

	// ListByTarget retrieves suggestions addressing the same target,
	// optionally excluding one agent type (for collaboration lookups)
	ListByTarget(ctx context.Context, targetType string, targetID *int64, excludeAgent string) ([]*Suggestion, error)

	// GetApprovalStats aggregates historical review outcomes
	GetApprovalStats(ctx context.Context, targetType, agentType string) (ApprovalStats, error)

	// DeleteExpired removes suggestions past their expiry, returning the count
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
