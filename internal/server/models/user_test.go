package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilePatch_Apply(t *testing.T) {
	avatar := "a-1"
	registered := time.Date(2024, 5, 18, 14, 30, 45, 0, time.UTC)
	u := &User{ID: "u-1", Name: "Old", AvatarImageID: &avatar, RegisteredAt: registered}

	ProfilePatch{Name: "John", Surname: "Doe", Nickname: "jd", Email: "j@d.io", Phone: "+1 555 1234", Address: "1 Main", About: "hi"}.Apply(u)

	assert.Equal(t, "John", u.Name)
	assert.Equal(t, "jd", u.Nickname)
	assert.Equal(t, "u-1", u.ID, "id is immutable")
	assert.Equal(t, registered, u.RegisteredAt, "registeredAt is set once")
	assert.Equal(t, &avatar, u.AvatarImageID, "avatar pointer is not part of a profile patch")
}

func TestDefaultSettings_AllVisible(t *testing.T) {
	s := DefaultSettings("u-1")
	assert.Equal(t, "u-1", s.UserID)
	assert.True(t, s.NameVisibility && s.SurnameVisibility && s.EmailVisibility &&
		s.PhoneVisibility && s.AddressVisibility && s.AvatarVisibility)
}

func TestSignOutMark_Live(t *testing.T) {
	now := time.Now()
	m := SignOutMark{SignedOutAt: now, ExpiresAt: now.Add(time.Minute)}
	assert.True(t, m.Live(now))
	assert.False(t, m.Live(now.Add(time.Minute)))
}
