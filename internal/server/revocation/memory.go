package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/userservice/internal/server/models"
)

// MemoryStore is a single-process Store. Only the latest expiry per user is
// kept, so memory is bounded by the number of users signed out within one
// token lifetime.
type MemoryStore struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{expires: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryStore) Record(_ context.Context, mark models.SignOutMark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.expires[mark.UserID]; !ok || mark.ExpiresAt.After(cur) {
		s.expires[mark.UserID] = mark.ExpiresAt
	}
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.expires[userID]
	return ok && s.now().Before(exp), nil
}

func (s *MemoryStore) Purge(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for id, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.expires, id)
			n++
		}
	}
	return n, nil
}
