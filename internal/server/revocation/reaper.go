package revocation

import (
	"context"
	"time"

	"github.com/dmitrijs2005/userservice/internal/logging"
)

// Reaper periodically purges expired marks.
type Reaper struct {
	store    Purger
	interval time.Duration
	logger   logging.Logger
}

func NewReaper(store Purger, interval time.Duration, logger logging.Logger) *Reaper {
	return &Reaper{store: store, interval: interval, logger: logger.With("module", "revocation_reaper")}
}

// Run blocks until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.purgeOnce(ctx)
		}
	}
}

func (r *Reaper) purgeOnce(ctx context.Context) {
	n, err := r.store.Purge(ctx)
	if err != nil {
		r.logger.Warn(ctx, "purge failed", "error", err)
		return
	}
	if n > 0 {
		r.logger.Debug(ctx, "purged expired sign-out marks", "count", n)
	}
}
