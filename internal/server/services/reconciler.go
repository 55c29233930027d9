package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/userservice/internal/logging"
	"github.com/dmitrijs2005/userservice/internal/server/objectstore"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/repomanager"
)

const reconcileBatch = 100

// Reconciler removes avatar leftovers of interrupted or partially failed
// replacements. Only items older than the grace period are touched, so an
// in-flight Replace is never raced.
type Reconciler struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	objects     objectstore.Store
	logger      logging.Logger
	interval    time.Duration
	grace       time.Duration
	now         func() time.Time
}

func NewReconciler(db *sql.DB, m repomanager.RepositoryManager, objects objectstore.Store, l logging.Logger, interval, grace time.Duration) *Reconciler {
	return &Reconciler{
		db:          db,
		repomanager: m,
		objects:     objects,
		logger:      l.With("module", "avatar_reconciler"),
		interval:    interval,
		grace:       grace,
		now:         time.Now,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := r.Sweep(ctx)
			if err != nil {
				r.logger.Warn(ctx, "avatar sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				r.logger.Info(ctx, "avatar sweep removed leftovers", "count", removed)
			}
		}
	}
}

// Sweep removes unreferenced metadata rows with their objects, then objects
// that never got a metadata row. It returns the number of removed items.
func (r *Reconciler) Sweep(ctx context.Context) (removed int, err error) {
	ctx, span := tracer.Start(ctx, "Reconciler.Sweep")
	defer func() { endSpan(span, err) }()

	cutoff := r.now().Add(-r.grace)

	orphans, err := r.repomanager.Avatars(r.db).ListOrphans(ctx, cutoff, reconcileBatch)
	if err != nil {
		return 0, err
	}
	for _, m := range orphans {
		if err := removeAvatar(ctx, r.repomanager, r.db, r.objects, m.ID); err != nil {
			r.logger.Warn(ctx, "orphan avatar not removed", "avatar_id", m.ID, "error", err)
			continue
		}
		removed++
	}

	objects, err := r.objects.List(ctx, AvatarPrefix)
	if err != nil {
		return removed, err
	}
	repo := r.repomanager.Avatars(r.db)
	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		indexed, err := repo.ExistsByPath(ctx, obj.Key)
		if err != nil {
			return removed, err
		}
		if indexed {
			continue
		}
		if err := r.objects.Delete(ctx, obj.Key); err != nil {
			r.logger.Warn(ctx, "unindexed avatar object not removed", "key", obj.Key, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}
