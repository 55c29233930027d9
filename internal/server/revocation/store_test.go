package revocation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/logging"
	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestMemoryStore_RevokedUntilTTLElapses(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = c.Now
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Record(ctx, NewMark("e1", "u1", c.Now(), 15*time.Minute)))

	for _, step := range []time.Duration{0, time.Minute, 13 * time.Minute} {
		c.Advance(step)
		revoked, _ = s.IsRevoked(ctx, "u1")
		assert.True(t, revoked, "mark must stay live")
	}

	revoked, _ = s.IsRevoked(ctx, "u2")
	assert.False(t, revoked, "other users are unaffected")

	c.Advance(time.Minute)
	revoked, _ = s.IsRevoked(ctx, "u1")
	assert.False(t, revoked, "mark expires after ttl")
}

func TestMemoryStore_RedeliveryAndOlderMarks(t *testing.T) {
	c := &clock{t: time.Now()}
	s := NewMemoryStore()
	s.now = c.Now
	ctx := context.Background()

	late := NewMark("e2", "u1", c.Now(), 10*time.Minute)
	early := NewMark("e1", "u1", c.Now().Add(-5*time.Minute), 10*time.Minute)

	require.NoError(t, s.Record(ctx, late))
	require.NoError(t, s.Record(ctx, late))
	require.NoError(t, s.Record(ctx, early))

	c.Advance(6 * time.Minute)
	revoked, _ := s.IsRevoked(ctx, "u1")
	assert.True(t, revoked, "an older mark must not shorten a newer one")
}

func TestMemoryStore_Purge(t *testing.T) {
	c := &clock{t: time.Now()}
	s := NewMemoryStore()
	s.now = c.Now
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, NewMark("e1", "u1", c.Now(), time.Minute)))
	require.NoError(t, s.Record(ctx, NewMark("e2", "u2", c.Now(), time.Hour)))

	c.Advance(2 * time.Minute)
	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	revoked, _ := s.IsRevoked(ctx, "u2")
	assert.True(t, revoked)
}

type fakeMarks struct {
	created   []models.SignOutMark
	live      bool
	err       error
	purged    int64
	lastNow   time.Time
	deadlines bool
}

func (f *fakeMarks) Create(ctx context.Context, m models.SignOutMark) error {
	_, f.deadlines = ctx.Deadline()
	f.created = append(f.created, m)
	return f.err
}

func (f *fakeMarks) ExistsLive(ctx context.Context, userID string, now time.Time) (bool, error) {
	_, f.deadlines = ctx.Deadline()
	f.lastNow = now
	return f.live, f.err
}

func (f *fakeMarks) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.lastNow = now
	return f.purged, f.err
}

func TestPostgresStore_DelegatesWithDeadline(t *testing.T) {
	repo := &fakeMarks{live: true, purged: 3}
	s := NewPostgresStore(repo, time.Second)
	fixed := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, NewMark("e1", "u1", fixed, time.Minute)))
	assert.True(t, repo.deadlines)
	require.Len(t, repo.created, 1)
	assert.Equal(t, fixed.Add(time.Minute), repo.created[0].ExpiresAt)

	revoked, err := s.IsRevoked(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, fixed, repo.lastNow)

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestPostgresStore_PropagatesStorageErrors(t *testing.T) {
	repo := &fakeMarks{err: common.ErrStorageUnavailable}
	s := NewPostgresStore(repo, 0)

	_, err := s.IsRevoked(context.Background(), "u1")
	assert.True(t, errors.Is(err, common.ErrStorageUnavailable))
	assert.False(t, repo.deadlines, "no deadline when timeout is disabled")
}

type countingPurger struct{ calls atomic.Int32 }

func (p *countingPurger) Purge(context.Context) (int64, error) {
	p.calls.Add(1)
	return 1, nil
}

func TestReaper_RunsUntilCancelled(t *testing.T) {
	p := &countingPurger{}
	r := NewReaper(p, 5*time.Millisecond, logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return p.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
