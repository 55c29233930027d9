// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the profile row. It is created from a "user created" event and
// mutated only by profile updates and avatar replacement.
type User struct {
	ID            string
	Name          string
	Surname       string
	Nickname      string
	Email         string
	Phone         string
	Address       string
	About         string
	AvatarImageID *string
	RegisteredAt  time.Time
}

// ProfilePatch carries the editable profile fields.
type ProfilePatch struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	About    string `json:"about"`
}

// Apply copies the patch onto u.
func (p ProfilePatch) Apply(u *User) {
	u.Name = p.Name
	u.Surname = p.Surname
	u.Nickname = p.Nickname
	u.Email = p.Email
	u.Phone = p.Phone
	u.Address = p.Address
	u.About = p.About
}

// Profile is the owner's full view of their user row.
type Profile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Surname       string    `json:"surname"`
	Nickname      string    `json:"nickname"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	About         string    `json:"about"`
	AvatarImageID *string   `json:"avatarImageId"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

// PublicProfile is what a third party may see. Gated fields are nil when the
// owner has hidden them.
type PublicProfile struct {
	ID            string    `json:"id"`
	Nickname      string    `json:"nickname"`
	About         string    `json:"about"`
	RegisteredAt  time.Time `json:"registeredAt"`
	Name          *string   `json:"name,omitempty"`
	Surname       *string   `json:"surname,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Address       *string   `json:"address,omitempty"`
	AvatarImageID *string   `json:"avatarImageId,omitempty"`
}

// ToProfile returns the owner view of u.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:            u.ID,
		Name:          u.Name,
		Surname:       u.Surname,
		Nickname:      u.Nickname,
		Email:         u.Email,
		Phone:         u.Phone,
		Address:       u.Address,
		About:         u.About,
		AvatarImageID: u.AvatarImageID,
		RegisteredAt:  u.RegisteredAt,
	}
}
