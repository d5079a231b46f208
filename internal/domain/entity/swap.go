package entity

import "time"

const (
	SwapStatusPending   = "pending"
	SwapStatusAccepted  = "accepted"
	SwapStatusRejected  = "rejected"
	SwapStatusCancelled = "cancelled"
)

const (
	CashToSender   = "to_sender"
	CashToReceiver = "to_receiver"
)

type OfferedItem struct {
	Description string `json:"description"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Swap is a directed barter offer against a listing. The status machine is
// pending -> accepted | rejected | cancelled, terminal once non-pending.
type Swap struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	ListingID  string `json:"listing_id"`

	OfferedItem   OfferedItem `json:"offered_item"`
	Message       string      `json:"message,omitempty"`
	CashAmount    float64     `json:"cash_amount,omitempty"`
	CashDirection string      `json:"cash_direction,omitempty"`

	Status       string   `json:"status"`
	RejectReason string   `json:"reject_reason,omitempty"`
	ReadBy       []string `json:"read_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Swap) Terminal() bool {
	return s.Status != SwapStatusPending
}

func (s *Swap) ReadByUser(userID string) bool {
	for _, r := range s.ReadBy {
		if r == userID {
			return true
		}
	}
	return false
}

// MarkRead mirrors the monotonic message read-set pattern.
func (s *Swap) MarkRead(userID string) {
	if !s.ReadByUser(userID) {
		s.ReadBy = append(s.ReadBy, userID)
	}
}
