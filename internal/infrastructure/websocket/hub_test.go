package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trueka/internal/domain/entity"
)

func newBoundClient(identity *entity.Identity) *Client {
	c := NewClient(nil)
	c.Bind(identity)
	return c
}

// nextFrame pops one queued frame without running the write pump.
func nextFrame(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.send:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return event
	default:
		t.Fatal("expected a queued frame")
		return Event{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected queued frame: %s", raw)
	default:
	}
}

func TestClientStateTransitions(t *testing.T) {
	c := NewClient(nil)
	assert.Equal(t, StateConnecting, c.State())

	c.Bind(&entity.Identity{ID: "usr_1"})
	assert.Equal(t, StateIdentified, c.State())

	// Binding is settled once; a late rebind is ignored.
	c.Bind(nil)
	assert.Equal(t, StateIdentified, c.State())
	require.NotNil(t, c.Identity())
	assert.Equal(t, "usr_1", c.Identity().ID)

	anon := NewClient(nil)
	anon.Bind(nil)
	assert.Equal(t, StateAnonymous, anon.State())
	assert.Nil(t, anon.Identity())
}

func TestRegisterSendsSessionReady(t *testing.T) {
	hub := NewHub()

	identified := newBoundClient(&entity.Identity{ID: "usr_1", DisplayName: "Ana"})
	hub.Register(identified)
	assert.Equal(t, 1, hub.ConnectedCount())

	ready := nextFrame(t, identified)
	assert.Equal(t, EventSessionReady, ready.Type)
	payload, ok := ready.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "usr_1", payload["id"])

	anon := newBoundClient(nil)
	hub.Register(anon)
	ready = nextFrame(t, anon)
	assert.Equal(t, EventSessionReady, ready.Type)
	assert.Nil(t, ready.Payload, "anonymous connections get a null identity")
}

func TestEmitTargetsIdentifiedConnections(t *testing.T) {
	hub := NewHub()
	ana := newBoundClient(&entity.Identity{ID: "usr_ana"})
	ben := newBoundClient(&entity.Identity{ID: "usr_ben"})
	anon := newBoundClient(nil)
	for _, c := range []*Client{ana, ben, anon} {
		hub.Register(c)
		nextFrame(t, c)
	}

	hub.Emit(NewEvent(EventConversationUpsert, map[string]string{"id": "cnv_1"}), ToIdentities("usr_ana"))
	event := nextFrame(t, ana)
	assert.Equal(t, EventConversationUpsert, event.Type)
	assertNoFrame(t, ben)
	assertNoFrame(t, anon)

	// Broadcast reaches every connection, anonymous included.
	hub.Emit(NewEvent(EventListingCreated, map[string]string{"id": "lst_1"}), Broadcast())
	for _, c := range []*Client{ana, ben, anon} {
		assert.Equal(t, EventListingCreated, nextFrame(t, c).Type)
	}

	// Multi-identity targets fan out to each named peer.
	hub.Emit(NewEvent(EventConversationTx, nil), ToIdentities("usr_ana", "usr_ben"))
	assert.Equal(t, EventConversationTx, nextFrame(t, ana).Type)
	assert.Equal(t, EventConversationTx, nextFrame(t, ben).Type)
	assertNoFrame(t, anon)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := newBoundClient(&entity.Identity{ID: "usr_1"})
	hub.Register(c)
	require.Equal(t, 1, hub.ConnectedCount())

	hub.Unregister(c)
	hub.Unregister(c)
	assert.Equal(t, 0, hub.ConnectedCount())
	assert.Equal(t, StateClosed, c.State())
	assert.False(t, c.enqueue([]byte("{}")), "closed clients refuse frames")
}

func TestEmitDropsUnwritableClient(t *testing.T) {
	hub := NewHub()
	stuck := newBoundClient(&entity.Identity{ID: "usr_stuck"})
	hub.Register(stuck)
	nextFrame(t, stuck)

	// Nobody drains the buffer; fill it to simulate a stalled peer.
	for i := 0; i < sendBufferSize; i++ {
		require.True(t, stuck.enqueue([]byte("{}")))
	}

	hub.Emit(NewEvent(EventListingCreated, nil), Broadcast())
	assert.Equal(t, 0, hub.ConnectedCount())
	assert.Equal(t, StateClosed, stuck.State())
}

func TestTeardownDuringEmitDoesNotPanic(t *testing.T) {
	// A client disconnecting while deliveries are in flight must never send
	// on the closed channel; run many rounds so the race detector gets a
	// real shot at the enqueue/close interleaving.
	for round := 0; round < 200; round++ {
		hub := NewHub()
		c := newBoundClient(&entity.Identity{ID: "usr_1"})
		hub.Register(c)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				c.enqueue([]byte("{}"))
			}
		}()
		go func() {
			defer wg.Done()
			hub.Unregister(c)
		}()
		wg.Wait()

		assert.Equal(t, StateClosed, c.State())
		assert.False(t, c.enqueue([]byte("{}")), "frames after close are refused, not dropped into a closed channel")
	}
}

func TestProbeRemovesOnlyUnwritableClients(t *testing.T) {
	hub := NewHub()
	healthy := newBoundClient(&entity.Identity{ID: "usr_ok"})
	stuck := newBoundClient(nil)
	hub.Register(healthy)
	hub.Register(stuck)
	nextFrame(t, healthy)
	nextFrame(t, stuck)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, stuck.enqueue([]byte("{}")))
	}

	hub.probe()
	assert.Equal(t, 1, hub.ConnectedCount())
	assert.Equal(t, EventPing, nextFrame(t, healthy).Type)
	assert.Equal(t, StateClosed, stuck.State())
}
