package entity

import "time"

// MaxMessageAttachments caps attachments per message; extras are silently
// truncated, not rejected.
const MaxMessageAttachments = 5

const (
	MessageKindText   = "text"
	MessageKindSystem = "system"
)

// Conversation is a two-party thread, optionally scoped to one listing.
// Participants are fixed at creation and never change; messages are
// append-only.
type Conversation struct {
	ID           string     `json:"id"`
	ListingID    string     `json:"listing_id,omitempty"`
	Participants []string   `json:"participants"`
	Messages     []*Message `json:"messages"`

	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the peer of userID, or "" when userID is not a
// participant.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// Matches reports whether the thread has the same identity as the given
// (listing, unordered participant pair) scope.
func (c *Conversation) Matches(listingID, userA, userB string) bool {
	if c.ListingID != listingID || len(c.Participants) != 2 {
		return false
	}
	return (c.Participants[0] == userA && c.Participants[1] == userB) ||
		(c.Participants[0] == userB && c.Participants[1] == userA)
}

type Attachment struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// Message is immutable once appended, except for the read-by set which only
// ever grows.
type Message struct {
	ID          string       `json:"id"`
	SenderID    string       `json:"sender_id"`
	Kind        string       `json:"kind"`
	Body        string       `json:"body,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ReadBy      []string     `json:"read_by"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (m *Message) ReadByUser(userID string) bool {
	for _, r := range m.ReadBy {
		if r == userID {
			return true
		}
	}
	return false
}

// MarkRead adds userID to the read-by set. The set is monotonic: repeated
// calls are no-ops and prior readers are never removed.
func (m *Message) MarkRead(userID string) {
	if !m.ReadByUser(userID) {
		m.ReadBy = append(m.ReadBy, userID)
	}
}

// ConversationView is the full conversation payload pushed to participants
// on every upsert.
type ConversationView struct {
	*Conversation
	Listing   *Listing    `json:"listing,omitempty"`
	OtherUser UserSummary `json:"other_user"`
}
