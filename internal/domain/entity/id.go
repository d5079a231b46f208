package entity

import (
	"strings"

	"github.com/google/uuid"
)

// Entity ID prefixes. Every object in the document graph carries a prefixed
// opaque string ID so logs and payloads are self-describing.
const (
	PrefixUser         = "usr"
	PrefixListing      = "lst"
	PrefixConversation = "cnv"
	PrefixMessage      = "msg"
	PrefixSwap         = "swp"
	PrefixTransaction  = "tx"
	PrefixSession      = "ses"
	PrefixBlock        = "blk"
	PrefixAudit        = "aud"
)

func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
