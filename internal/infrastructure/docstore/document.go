package docstore

import (
	"encoding/json"

	"trueka/internal/domain/entity"
)

// Document is the complete marketplace graph. The Store owns the single live
// instance; everything else works with snapshots or mutates inside
// Store.Update.
type Document struct {
	Users         map[string]*entity.User         `json:"users"`
	Listings      map[string]*entity.Listing      `json:"listings"`
	Conversations map[string]*entity.Conversation `json:"conversations"`
	Swaps         map[string]*entity.Swap         `json:"swaps"`
	Transactions  map[string]*entity.Transaction  `json:"transactions"`
	Sessions      map[string]*entity.Session      `json:"sessions"`
	Blocks        map[string]*entity.Block        `json:"blocks"`
	Audit         []*entity.AuditEntry            `json:"audit"`
}

func NewDocument() *Document {
	return &Document{
		Users:         make(map[string]*entity.User),
		Listings:      make(map[string]*entity.Listing),
		Conversations: make(map[string]*entity.Conversation),
		Swaps:         make(map[string]*entity.Swap),
		Transactions:  make(map[string]*entity.Transaction),
		Sessions:      make(map[string]*entity.Session),
		Blocks:        make(map[string]*entity.Block),
		Audit:         []*entity.AuditEntry{},
	}
}

// normalize backfills nil maps after unmarshalling an older or partial file
// so callers never index into a nil map.
func (d *Document) normalize() {
	if d.Users == nil {
		d.Users = make(map[string]*entity.User)
	}
	if d.Listings == nil {
		d.Listings = make(map[string]*entity.Listing)
	}
	if d.Conversations == nil {
		d.Conversations = make(map[string]*entity.Conversation)
	}
	if d.Swaps == nil {
		d.Swaps = make(map[string]*entity.Swap)
	}
	if d.Transactions == nil {
		d.Transactions = make(map[string]*entity.Transaction)
	}
	if d.Sessions == nil {
		d.Sessions = make(map[string]*entity.Session)
	}
	if d.Blocks == nil {
		d.Blocks = make(map[string]*entity.Block)
	}
}

// Clone returns a deep, independent copy via a JSON round trip. The document
// is JSON-serializable by construction, so this cannot fail for a valid
// in-memory graph.
func (d *Document) Clone() *Document {
	raw, err := json.Marshal(d)
	if err != nil {
		panic("docstore: document not serializable: " + err.Error())
	}
	clone := NewDocument()
	if err := json.Unmarshal(raw, clone); err != nil {
		panic("docstore: document clone failed: " + err.Error())
	}
	clone.normalize()
	return clone
}

// FindConversation locates the thread matching the (listing, unordered
// participant pair) identity, the dedupe key for conversation creation.
func (d *Document) FindConversation(listingID, userA, userB string) *entity.Conversation {
	for _, c := range d.Conversations {
		if c.Matches(listingID, userA, userB) {
			return c
		}
	}
	return nil
}

// TransactionForConversation returns the transaction recorded for the
// conversation, if any. At most one can exist.
func (d *Document) TransactionForConversation(conversationID string) *entity.Transaction {
	for _, tx := range d.Transactions {
		if tx.ConversationID == conversationID {
			return tx
		}
	}
	return nil
}

// BlockedBetween reports whether a block exists in either direction between
// the two users.
func (d *Document) BlockedBetween(userA, userB string) bool {
	for _, b := range d.Blocks {
		if (b.OwnerID == userA && b.TargetID == userB) ||
			(b.OwnerID == userB && b.TargetID == userA) {
			return true
		}
	}
	return false
}

// BlockBy returns the block owned by owner against target, if present.
func (d *Document) BlockBy(ownerID, targetID string) *entity.Block {
	for _, b := range d.Blocks {
		if b.OwnerID == ownerID && b.TargetID == targetID {
			return b
		}
	}
	return nil
}
