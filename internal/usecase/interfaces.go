package usecase

import (
	"trueka/internal/infrastructure/storage"
	ws "trueka/internal/infrastructure/websocket"
)

// EventEmitter is the hub surface usecases need. The hub never reads the
// document store; usecases hand it fully-built payloads after committing.
type EventEmitter interface {
	Emit(event ws.Event, target ws.Target)
}

// AttachmentStore persists raw attachment content before it is referenced
// from a message. Remove reclaims a stored file when the message it was
// destined for is rejected.
type AttachmentStore interface {
	Store(content []byte) (storage.StoredFile, error)
	Remove(publicURL string) error
}
