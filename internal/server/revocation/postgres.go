package revocation

import (
	"context"
	"time"

	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/signoutmarks"
)

// PostgresStore keeps marks in the sign_out_marks table so every instance of
// the service sees the same revocations.
type PostgresStore struct {
	repo    signoutmarks.Repository
	timeout time.Duration
	now     func() time.Time
}

func NewPostgresStore(repo signoutmarks.Repository, timeout time.Duration) *PostgresStore {
	return &PostgresStore{repo: repo, timeout: timeout, now: time.Now}
}

func (s *PostgresStore) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PostgresStore) Record(ctx context.Context, mark models.SignOutMark) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.Create(ctx, mark)
}

func (s *PostgresStore) IsRevoked(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.ExistsLive(ctx, userID, s.now())
}

func (s *PostgresStore) Purge(ctx context.Context) (int64, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	return s.repo.DeleteExpired(ctx, s.now())
}
