package entity

import "time"

// Transaction records the successful conclusion of a deal. At most one
// exists per conversation; creating one flips the listing to sold.
type Transaction struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	ListingID      string    `json:"listing_id"`
	SellerID       string    `json:"seller_id"`
	BuyerID        string    `json:"buyer_id"`
	CreatedAt      time.Time `json:"created_at"`
}
