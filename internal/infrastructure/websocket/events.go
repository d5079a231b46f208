package websocket

import "time"

// Event types pushed over the real-time channel.
const (
	EventSessionReady        = "session.ready"
	EventConversationUpsert  = "conversation.upsert"
	EventConversationRemoved = "conversation.removed"
	EventConversationTx      = "conversation.transaction"
	EventListingCreated      = "listing.created"
	EventListingUpdated      = "listing.updated"
	EventVerificationChanged = "verification.status.changed"

	// Liveness exchange; the only inbound application message the hub
	// understands.
	EventPing = "ping"
	EventPong = "pong"
)

type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

func NewEvent(eventType string, payload interface{}) Event {
	return Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Target selects which registered connections receive an event.
type Target struct {
	Broadcast   bool
	IdentityIDs []string
	RequireAuth bool
}

func Broadcast() Target {
	return Target{Broadcast: true}
}

// ToIdentities targets connections bound to any of the given identity IDs.
// Unidentified connections never match.
func ToIdentities(ids ...string) Target {
	return Target{IdentityIDs: ids, RequireAuth: true}
}

func (t Target) matches(c *Client) bool {
	if t.Broadcast {
		return true
	}
	identity := c.Identity()
	if identity == nil {
		return false
	}
	for _, id := range t.IdentityIDs {
		if id == identity.ID {
			return true
		}
	}
	return false
}
