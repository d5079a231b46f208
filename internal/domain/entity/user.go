package entity

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

const (
	VerificationNone     = "none"
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"`
	DisplayName  string `json:"display_name"`
	Bio          string `json:"bio,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Role         string `json:"role"`
	Status       string `json:"status"`

	VerificationStatus string `json:"verification_status"`

	// Reputation summary, derived by recompute and never edited directly.
	SalesCount int `json:"sales_count"`
	SwapsCount int `json:"swaps_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSummary is the public projection of a user attached to listings,
// conversations and real-time events.
type UserSummary struct {
	ID                 string `json:"id"`
	DisplayName        string `json:"display_name"`
	AvatarURL          string `json:"avatar_url,omitempty"`
	VerificationStatus string `json:"verification_status"`
	SalesCount         int    `json:"sales_count"`
	SwapsCount         int    `json:"swaps_count"`
}

// Public returns a copy safe to hand to API callers: same user, credentials
// hash stripped.
func (u *User) Public() *User {
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:                 u.ID,
		DisplayName:        u.DisplayName,
		AvatarURL:          u.AvatarURL,
		VerificationStatus: u.VerificationStatus,
		SalesCount:         u.SalesCount,
		SwapsCount:         u.SwapsCount,
	}
}

// Identity is the resolved session identity consumed by every authorized
// operation and by the event hub when binding connections.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
