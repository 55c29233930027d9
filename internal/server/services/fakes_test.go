package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/dbx"
	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/avatars"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/settings"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/signoutmarks"
	"github.com/dmitrijs2005/userservice/internal/server/repositories/users"
)

type fakeUsersRepo struct {
	mu           sync.Mutex
	rows         map[string]models.User
	getErr       error
	setAvatarErr error
	updateErr    error
}

func newFakeUsers(us ...models.User) *fakeUsersRepo {
	r := &fakeUsersRepo{rows: map[string]models.User{}}
	for _, u := range us {
		r.rows[u.ID] = u
	}
	return r
}

func (r *fakeUsersRepo) get(id string) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	return u, ok
}

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[u.ID]; ok {
		return false, nil
	}
	r.rows[u.ID] = *u
	return true, nil
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.get(id)
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUsersRepo) LockByID(ctx context.Context, id string) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUsersRepo) UpdateProfile(_ context.Context, u *models.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[u.ID]; !ok {
		return common.ErrNotFound
	}
	r.rows[u.ID] = *u
	return nil
}

func (r *fakeUsersRepo) SetAvatar(_ context.Context, userID string, avatarID *string) error {
	if r.setAvatarErr != nil {
		return r.setAvatarErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[userID]
	if !ok {
		return common.ErrNotFound
	}
	if avatarID != nil {
		v := *avatarID
		u.AvatarImageID = &v
	} else {
		u.AvatarImageID = nil
	}
	r.rows[userID] = u
	return nil
}

func (r *fakeUsersRepo) references(avatarID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.AvatarImageID != nil && *u.AvatarImageID == avatarID {
			return true
		}
	}
	return false
}

type fakeSettingsRepo struct {
	mu   sync.Mutex
	rows map[string]models.UserSettings
}

func newFakeSettings(ss ...models.UserSettings) *fakeSettingsRepo {
	r := &fakeSettingsRepo{rows: map[string]models.UserSettings{}}
	for _, s := range ss {
		r.rows[s.UserID] = s
	}
	return r
}

func (r *fakeSettingsRepo) GetByUserID(_ context.Context, userID string) (*models.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &s, nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, s *models.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.rows[s.UserID]; ok {
		v := *s
		v.ID = cur.ID
		r.rows[s.UserID] = v
		return nil
	}
	r.rows[s.UserID] = *s
	return nil
}

func (r *fakeSettingsRepo) CreateDefault(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[userID]; ok {
		return nil
	}
	s := models.DefaultSettings(userID)
	s.ID = id
	r.rows[userID] = *s
	return nil
}

type fakeAvatarsRepo struct {
	mu        sync.Mutex
	rows      map[string]models.AvatarMetadata
	users     *fakeUsersRepo
	createErr error
}

func newFakeAvatars(u *fakeUsersRepo, ms ...models.AvatarMetadata) *fakeAvatarsRepo {
	r := &fakeAvatarsRepo{rows: map[string]models.AvatarMetadata{}, users: u}
	for _, m := range ms {
		r.rows[m.ID] = m
	}
	return r
}

func (r *fakeAvatarsRepo) Create(_ context.Context, m *models.AvatarMetadata) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[m.ID] = *m
	return nil
}

func (r *fakeAvatarsRepo) GetByID(_ context.Context, id string) (*models.AvatarMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &m, nil
}

func (r *fakeAvatarsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *fakeAvatarsRepo) ExistsByPath(_ context.Context, p string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.StoragePath == p {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAvatarsRepo) ListOrphans(_ context.Context, olderThan time.Time, limit int) ([]models.AvatarMetadata, error) {
	r.mu.Lock()
	candidates := make([]models.AvatarMetadata, 0, len(r.rows))
	for _, m := range r.rows {
		if m.CreatedAt.Before(olderThan) {
			candidates = append(candidates, m)
		}
	}
	r.mu.Unlock()

	var out []models.AvatarMetadata
	for _, m := range candidates {
		if len(out) == limit {
			break
		}
		if !r.users.references(m.ID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeAvatarsRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSettingsRepo
	a *fakeAvatarsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository               { return m.u }
func (m *fakeRepoManager) Settings(dbx.DBTX) settings.Repository         { return m.s }
func (m *fakeRepoManager) Avatars(dbx.DBTX) avatars.Repository           { return m.a }
func (m *fakeRepoManager) SignOutMarks(dbx.DBTX) signoutmarks.Repository { return nil }

type fakePublisher struct {
	mu        sync.Mutex
	published []models.User
	err       error
}

func (p *fakePublisher) PublishUserChanged(_ context.Context, u *models.User) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, *u)
	return p.err
}

// newMockDB returns a sqlmock handle; tests declare the Begin/Commit pairs
// that dbx.WithTx will issue.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func strPtr(s string) *string { return &s }
