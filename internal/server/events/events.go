// Package events carries user lifecycle events between this service and the
// rest of the system over a publish/subscribe bus.
package events

import "time"

// Bus channels.
const (
	ChannelUserCreated   = "user_created_events"
	ChannelUserSignedOut = "user_sign_out_events"
	ChannelUserChanged   = "user_changed_events"
)

// UserCreated announces a newly registered user.
type UserCreated struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Surname  string    `json:"surname"`
	Nickname string    `json:"nickname"`
	Phone    string    `json:"phone"`
	Email    string    `json:"email"`
	Time     time.Time `json:"time"`
}

// UserSignedOut announces that every session of a user ended.
type UserSignedOut struct {
	ID     string    `json:"id"`
	UserID string    `json:"userId"`
	Time   time.Time `json:"time"`
}

// UserChanged carries the profile snapshot after an update.
type UserChanged struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Nickname     string    `json:"nickname"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	RegisteredAt time.Time `json:"registeredAt"`
	About        string    `json:"about"`
}
