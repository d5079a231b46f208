package entity

import "time"

const (
	ListingStatusActive     = "active"
	ListingStatusPaused     = "paused"
	ListingStatusSold       = "sold"
	ListingStatusFinalizado = "finalizado"
	ListingStatusRemoved    = "removed"
	ListingStatusSuspended  = "suspended"
)

type Listing struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Images      []string `json:"images,omitempty"`
	Status      string   `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Visible reports whether the listing shows up in public browse results.
func (l *Listing) Visible() bool {
	return l.Status == ListingStatusActive
}

// ListingView is the owner-enriched projection emitted with listing events
// and returned by read endpoints.
type ListingView struct {
	*Listing
	Owner UserSummary `json:"owner"`
}
