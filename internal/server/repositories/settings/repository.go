// Package settings stores per-user visibility flags.
package settings

import (
	"context"

	"github.com/dmitrijs2005/userservice/internal/server/models"
)

type Repository interface {
	// GetByUserID returns common.ErrNotFound when no row exists yet.
	GetByUserID(ctx context.Context, userID string) (*models.UserSettings, error)
	// Upsert writes s, creating the row when missing.
	Upsert(ctx context.Context, s *models.UserSettings) error
	// CreateDefault inserts an all-visible row unless one already exists.
	CreateDefault(ctx context.Context, id, userID string) error
}
