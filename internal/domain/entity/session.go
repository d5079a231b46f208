package entity

import "time"

// Session binds an opaque token to a user until expiry. Expiry is checked at
// resolution time; no background sweep is needed for correctness.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
