package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/userservice/internal/common"
	"github.com/dmitrijs2005/userservice/internal/logging"
	"github.com/dmitrijs2005/userservice/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileService(t *testing.T, m *fakeRepoManager, p *fakePublisher) (*ProfileService, func(commit bool)) {
	t.Helper()
	db, mock := newMockDB(t)
	expectTx := func(commit bool) {
		mock.ExpectBegin()
		if commit {
			mock.ExpectCommit()
		} else {
			mock.ExpectRollback()
		}
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
	})
	return NewProfileService(db, m, p, logging.Nop{}, time.Second), expectTx
}

func TestGetProfile(t *testing.T) {
	u := sampleUser()
	m := &fakeRepoManager{u: newFakeUsers(*u), s: newFakeSettings()}
	svc, _ := newProfileService(t, m, &fakePublisher{})

	p, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "john@doe.io", p.Email)
	assert.Equal(t, "a1", *p.AvatarImageID)

	_, err = svc.GetProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetPublicProfile_DefaultVisibleWithoutSettings(t *testing.T) {
	m := &fakeRepoManager{u: newFakeUsers(models.User{ID: "U", Name: "John", Nickname: "j"}), s: newFakeSettings()}
	svc, _ := newProfileService(t, m, &fakePublisher{})

	p, err := svc.GetPublicProfile(context.Background(), "U")
	require.NoError(t, err)
	require.NotNil(t, p.Name)
	assert.Equal(t, "John", *p.Name)
}

func TestGetPublicProfile_HonoursSettings(t *testing.T) {
	u := sampleUser()
	hidden := models.UserSettings{UserID: u.ID, NameVisibility: false, EmailVisibility: true}
	m := &fakeRepoManager{u: newFakeUsers(*u), s: newFakeSettings(hidden)}
	svc, _ := newProfileService(t, m, &fakePublisher{})

	p, err := svc.GetPublicProfile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, p.Name)
	assert.Equal(t, u.Email, *p.Email)
	assert.Equal(t, u.Nickname, p.Nickname)
}

func TestGetPublicProfile_StorageError(t *testing.T) {
	users := newFakeUsers()
	users.getErr = common.ErrStorageUnavailable
	svc, _ := newProfileService(t, &fakeRepoManager{u: users, s: newFakeSettings()}, &fakePublisher{})

	_, err := svc.GetPublicProfile(context.Background(), "u1")
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestUpdateProfile_PersistsAndPublishes(t *testing.T) {
	u := sampleUser()
	users := newFakeUsers(*u)
	pub := &fakePublisher{}
	svc, expectTx := newProfileService(t, &fakeRepoManager{u: users, s: newFakeSettings()}, pub)
	expectTx(true)

	patch := validPatch()
	p, err := svc.UpdateProfile(context.Background(), u.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, patch.Nickname, p.Nickname)
	assert.Equal(t, u.RegisteredAt, p.RegisteredAt)
	assert.Equal(t, "a1", *p.AvatarImageID)

	stored, _ := users.get(u.ID)
	assert.Equal(t, patch.Name, stored.Name)

	require.Len(t, pub.published, 1)
	assert.Equal(t, patch.Email, pub.published[0].Email)
	assert.Equal(t, u.ID, pub.published[0].ID)
}

func TestUpdateProfile_ValidationLeavesRowUntouched(t *testing.T) {
	u := sampleUser()
	users := newFakeUsers(*u)
	pub := &fakePublisher{}
	svc, _ := newProfileService(t, &fakeRepoManager{u: users, s: newFakeSettings()}, pub)

	patch := validPatch()
	patch.Nickname = "bad nick"

	_, err := svc.UpdateProfile(context.Background(), u.ID, patch)
	var ve *common.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "nickname", ve.Field)

	stored, _ := users.get(u.ID)
	assert.Equal(t, u.Nickname, stored.Nickname)
	assert.Empty(t, pub.published)
}

func TestUpdateProfile_UnknownUserRollsBack(t *testing.T) {
	svc, expectTx := newProfileService(t, &fakeRepoManager{u: newFakeUsers(), s: newFakeSettings()}, &fakePublisher{})
	expectTx(false)

	_, err := svc.UpdateProfile(context.Background(), "ghost", validPatch())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateProfile_NicknameConflict(t *testing.T) {
	u := sampleUser()
	users := newFakeUsers(*u)
	users.updateErr = common.ErrConflict
	svc, expectTx := newProfileService(t, &fakeRepoManager{u: users, s: newFakeSettings()}, &fakePublisher{})
	expectTx(false)

	_, err := svc.UpdateProfile(context.Background(), u.ID, validPatch())
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestUpdateProfile_PublishFailureIsNotFatal(t *testing.T) {
	u := sampleUser()
	pub := &fakePublisher{err: errors.New("bus down")}
	svc, expectTx := newProfileService(t, &fakeRepoManager{u: newFakeUsers(*u), s: newFakeSettings()}, pub)
	expectTx(true)

	_, err := svc.UpdateProfile(context.Background(), u.ID, validPatch())
	require.NoError(t, err)
	assert.Len(t, pub.published, 1)
}

func TestCreateUser_Idempotent(t *testing.T) {
	users := newFakeUsers()
	svc, _ := newProfileService(t, &fakeRepoManager{u: users, s: newFakeSettings()}, &fakePublisher{})

	registered := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := &models.User{ID: "u1", Name: "John", Nickname: "j", RegisteredAt: registered}
	require.NoError(t, svc.CreateUser(context.Background(), first))

	again := &models.User{ID: "u1", Name: "Changed", Nickname: "j", RegisteredAt: registered.Add(time.Hour)}
	require.NoError(t, svc.CreateUser(context.Background(), again))

	stored, _ := users.get("u1")
	assert.Equal(t, "John", stored.Name)
	assert.Equal(t, registered, stored.RegisteredAt)
}
