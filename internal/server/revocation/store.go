// Package revocation records sign-outs and answers whether a user's tokens
// have been revoked.
//
// A sign-out mark is keyed by user id and lives for at least the maximum
// access-token lifetime. While any mark for a user is live, every token of
// that user is rejected. Marks expire on their own; nothing un-revokes early.
package revocation

import (
	"context"
	"time"

	"github.com/dmitrijs2005/userservice/internal/server/models"
)

// Store is the revocation capability consulted on every authenticated request.
type Store interface {
	// Record stores mark. Recording the same mark twice is harmless.
	Record(ctx context.Context, mark models.SignOutMark) error
	// IsRevoked reports whether userID has a live sign-out mark.
	IsRevoked(ctx context.Context, userID string) (bool, error)
}

// Purger drops expired marks.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// NewMark builds the mark for a sign-out at signedOutAt that must outlive
// every token issued before it, i.e. ttl is the access-token lifetime.
func NewMark(id, userID string, signedOutAt time.Time, ttl time.Duration) models.SignOutMark {
	return models.SignOutMark{
		ID:          id,
		UserID:      userID,
		SignedOutAt: signedOutAt,
		ExpiresAt:   signedOutAt.Add(ttl),
	}
}
