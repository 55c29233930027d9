// Package signoutmarks persists the per-user sign-out marks that revoke
// previously issued access tokens.
package signoutmarks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/userservice/internal/server/models"
)

type Repository interface {
	// Create stores the mark. A mark with an existing id is ignored.
	Create(ctx context.Context, m models.SignOutMark) error
	// ExistsLive reports whether userID has any mark expiring after now.
	ExistsLive(ctx context.Context, userID string, now time.Time) (bool, error)
	// DeleteExpired removes marks that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
