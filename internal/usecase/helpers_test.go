package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trueka/internal/domain/entity"
	"trueka/internal/infrastructure/docstore"
	"trueka/internal/infrastructure/storage"

	ws "trueka/internal/infrastructure/websocket"
)

// recordedEvent pairs an emitted event with its target for assertions.
type recordedEvent struct {
	Event  ws.Event
	Target ws.Target
}

// fakeEmitter records emissions instead of pushing them to live sockets.
type fakeEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEmitter) Emit(event ws.Event, target ws.Target) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Event: event, Target: target})
}

func (f *fakeEmitter) ofType(eventType string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []recordedEvent{}
	for _, e := range f.events {
		if e.Event.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func (f *fakeEmitter) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// fakeFiles satisfies AttachmentStore without touching the filesystem.
type fakeFiles struct {
	mu      sync.Mutex
	stored  int
	removed int
}

func (f *fakeFiles) Store(content []byte) (storage.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored++
	return storage.StoredFile{
		PublicURL: fmt.Sprintf("http://localhost:8080/uploads/file-%d.png", f.stored),
		MimeType:  "image/png",
	}, nil
}

func (f *fakeFiles) Remove(publicURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed++
	return nil
}

// live reports how many stored files have not been reclaimed.
func (f *fakeFiles) live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored - f.removed
}

// testEnv wires the full usecase layer against a throwaway store.
type testEnv struct {
	store   *docstore.Store
	emitter *fakeEmitter
	files   *fakeFiles

	auth     *AuthUseCase
	users    *UserUseCase
	listings *ListingUseCase
	swaps    *SwapUseCase
	chat     *ChatUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := docstore.Open(filepath.Join(t.TempDir(), "db.json"), true)
	require.NoError(t, err)

	emitter := &fakeEmitter{}
	files := &fakeFiles{}

	swaps := NewSwapUseCase(store, emitter)
	return &testEnv{
		store:    store,
		emitter:  emitter,
		files:    files,
		auth:     NewAuthUseCase(store, time.Hour),
		users:    NewUserUseCase(store, emitter),
		listings: NewListingUseCase(store, emitter),
		swaps:    swaps,
		chat:     NewChatUseCase(store, emitter, files, swaps),
	}
}

func (env *testEnv) registerUser(t *testing.T, email, name string) *entity.User {
	t.Helper()
	result, err := env.auth.Register(context.Background(), RegisterInput{
		Email:       email,
		Password:    "password123",
		DisplayName: name,
	})
	require.NoError(t, err)
	return result.User
}

func (env *testEnv) createListing(t *testing.T, ownerID, title string) *entity.ListingView {
	t.Helper()
	view, err := env.listings.Create(context.Background(), ownerID, ListingInput{
		Title:    title,
		Category: "general",
	})
	require.NoError(t, err)
	return view
}

func (env *testEnv) promoteToAdmin(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, env.store.Update(func(doc *docstore.Document) error {
		doc.Users[userID].Role = entity.RoleAdmin
		return nil
	}))
}
