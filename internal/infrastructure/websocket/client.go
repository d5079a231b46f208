package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trueka/internal/domain/entity"
	"trueka/pkg/logger"
)

// Connection lifecycle states.
const (
	StateConnecting = iota
	StateIdentified
	StateAnonymous
	StateClosed
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client is one live real-time connection. Identity is fixed when the client
// moves out of the connecting state; after that the client is either
// identified or anonymous until closed. The mutex guards state, identity and
// the lifecycle of the send channel: enqueue and close hold it together, so a
// frame can never race the channel close.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	mu       sync.Mutex
	state    int
	identity *entity.Identity
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		state: StateConnecting,
	}
}

// Bind attaches the resolved identity (or nil for anonymous) and settles the
// connection state. Only legal while connecting.
func (c *Client) Bind(identity *entity.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnecting {
		return
	}
	c.identity = identity
	if identity != nil {
		c.state = StateIdentified
	} else {
		c.state = StateAnonymous
	}
}

func (c *Client) Identity() *entity.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *Client) State() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// enqueue hands a frame to the write pump without blocking. A full buffer
// means the peer stopped draining; report failure so the hub removes it. The
// state check and the channel send happen under one lock acquisition so a
// concurrent markClosed cannot close the channel between them.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// markClosed flips the state and closes the send channel exactly once, no
// matter how many paths (read error, probe, explicit unregister) race to it.
// The closed state doubles as the close-once guard.
func (c *Client) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	close(c.send)
}

// ReadPump consumes inbound frames. The only application message honored is
// the liveness ping; domain mutations never arrive on this channel.
func (c *Client) ReadPump(hub *Hub) {
	defer func() {
		hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("websocket: read error: %v", err)
			}
			return
		}

		var inbound Event
		if err := json.Unmarshal(raw, &inbound); err != nil {
			logger.Debug("websocket: dropping malformed inbound frame: %v", err)
			continue
		}
		if inbound.Type == EventPing {
			pong, _ := json.Marshal(NewEvent(EventPong, map[string]string{"status": "alive"}))
			c.enqueue(pong)
			continue
		}
		logger.Debug("websocket: ignoring inbound frame type %q", inbound.Type)
	}
}

// WritePump owns all writes to the underlying connection, including the
// transport-level ping that backs the hub's liveness probe.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug("websocket: write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
