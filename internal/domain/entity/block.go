package entity

import "time"

// Block is a directed relation: owner blocks target. Messaging is refused in
// both directions as soon as either direction is blocked.
type Block struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}
