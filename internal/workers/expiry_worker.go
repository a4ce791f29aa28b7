package workers

import (
	"context"
	"time"

	"github.com/DrChenMor/tooth-tech-scribe-sub002/internal/domain/suggestion"
	"github.com/DrChenMor/tooth-tech-scribe-sub002/pkg/errors"
)

// ExpiryWorker removes pending suggestions that passed their expiry without
// ever being reviewed.
type ExpiryWorker struct {
	*BaseWorker
	repo suggestion.Repository
}

// NewExpiryWorker creates the expiry sweeper.
func NewExpiryWorker(repo suggestion.Repository, interval time.Duration, enabled bool) *ExpiryWorker {
	return &ExpiryWorker{
		BaseWorker: NewBaseWorker("suggestion_expiry", interval, enabled),
		repo:       repo,
	}
}

// Run sweeps expired suggestions once.
func (w *ExpiryWorker) Run(ctx context.Context) error {
	n, err := w.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return errors.Wrap(err, "delete expired suggestions")
	}

	if n > 0 {
		w.Log().Info("Expired suggestions swept", "count", n)
	}
	return nil
}
