// Package avatars indexes stored avatar objects by opaque id.
package avatars

import (
	"context"
	"time"

	"github.com/dmitrijs2005/userservice/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.AvatarMetadata) error
	// GetByID returns common.ErrNotFound when the id is unknown.
	GetByID(ctx context.Context, id string) (*models.AvatarMetadata, error)
	// Delete removes the row; deleting a missing row is not an error.
	Delete(ctx context.Context, id string) error
	// ExistsByPath reports whether a row references the storage path.
	ExistsByPath(ctx context.Context, path string) (bool, error)
	// ListOrphans returns up to limit rows created before olderThan that no
	// user points at.
	ListOrphans(ctx context.Context, olderThan time.Time, limit int) ([]models.AvatarMetadata, error)
}
