// Package users declares the repository contract for user profile rows.
package users

import (
	"context"

	"github.com/dmitrijs2005/userservice/internal/server/models"
)

// Repository reads and writes user rows.
type Repository interface {
	// Create inserts the user. Creating an id that already exists is a no-op
	// and reports created=false.
	Create(ctx context.Context, user *models.User) (created bool, err error)

	// GetByID returns common.ErrNotFound when the user is absent.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// LockByID is GetByID with a row lock; only meaningful inside a transaction.
	LockByID(ctx context.Context, id string) (*models.User, error)

	// UpdateProfile writes the editable profile fields of user.
	UpdateProfile(ctx context.Context, user *models.User) error

	// SetAvatar points the user at avatarID (nil clears it).
	SetAvatar(ctx context.Context, userID string, avatarID *string) error
}
