package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"trueka/pkg/logger"
)

// Hub owns the set of live connections and fans typed events out to them.
// It never touches the document store; it is purely a transport.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	probeInterval time.Duration
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]struct{}),
		probeInterval: 30 * time.Second,
	}
}

// Register admits a connection. The client must already be bound (identified
// or anonymous); the new connection immediately receives session.ready with
// its identity summary, or null when anonymous.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	var payload interface{}
	if identity := c.Identity(); identity != nil {
		payload = identity
		logger.Info("websocket: client registered for %s (%d connected)", identity.ID, count)
	} else {
		logger.Info("websocket: anonymous client registered (%d connected)", count)
	}

	ready, _ := json.Marshal(NewEvent(EventSessionReady, payload))
	if !c.enqueue(ready) {
		h.Unregister(c)
	}
}

// Unregister removes a connection. Idempotent, and safe to call concurrently
// from the read pump, the liveness probe and explicit close paths; all of
// them converge on the same removed state.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c]
	if present {
		delete(h.clients, c)
	}
	count := len(h.clients)
	h.mu.Unlock()

	c.markClosed()
	if present {
		logger.Info("websocket: client unregistered (%d connected)", count)
	}
}

// Emit delivers one event to every connection matching the target. Delivery
// is fire-and-forget per connection: a client that cannot take the frame is
// dropped and the rest are unaffected.
func (h *Hub) Emit(event Event, target Target) {
	frame, err := json.Marshal(event)
	if err != nil {
		logger.Error("websocket: marshal %s event: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	matched := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if target.matches(c) {
			matched = append(matched, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range matched {
		if !c.enqueue(frame) {
			logger.Warn("websocket: dropping unwritable client during %s emit", event.Type)
			h.Unregister(c)
		}
	}
}

// ConnectedCount reports the number of registered connections.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run drives the periodic liveness probe until the context is cancelled.
// Connections that are no longer writable are unregistered as a side effect
// of the probe rather than waiting on their error paths.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.probe()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) probe() {
	frame, _ := json.Marshal(NewEvent(EventPing, map[string]string{"status": "probe"}))

	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		if !c.enqueue(frame) {
			logger.Warn("websocket: liveness probe removing unwritable client")
			h.Unregister(c)
		}
	}
}
