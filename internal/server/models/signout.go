package models

import "time"

// SignOutMark revokes every token of UserID until ExpiresAt.
type SignOutMark struct {
	ID          string
	UserID      string
	SignedOutAt time.Time
	ExpiresAt   time.Time
}

// Live reports whether the mark still revokes tokens at now.
func (m SignOutMark) Live(now time.Time) bool {
	return now.Before(m.ExpiresAt)
}
