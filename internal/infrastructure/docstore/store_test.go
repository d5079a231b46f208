package docstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trueka/internal/domain/entity"
)

func tempStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "db.json")
}

func TestOpenCreatesAndPersistsEmptyDocument(t *testing.T) {
	path := tempStorePath(t)

	store, err := Open(path, false)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "backing file should exist before any read is served")

	snapshot := store.Snapshot()
	assert.Empty(t, snapshot.Users)
	assert.Empty(t, snapshot.Listings)
	assert.Empty(t, snapshot.Conversations)
}

func TestOpenCorruptFileFallsBackToEmpty(t *testing.T) {
	path := tempStorePath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := Open(path, false)
	require.NoError(t, err)
	assert.Empty(t, store.Snapshot().Users)

	// The corrupt file stays on disk until the next successful write.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(raw))
}

func TestOpenCorruptFileStrictModeFails(t *testing.T) {
	path := tempStorePath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Open(path, true)
	assert.Error(t, err)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	store, err := Open(tempStorePath(t), false)
	require.NoError(t, err)

	require.NoError(t, store.Update(func(doc *Document) error {
		doc.Users["usr_1"] = &entity.User{ID: "usr_1", DisplayName: "Ana"}
		return nil
	}))

	snapshot := store.Snapshot()
	snapshot.Users["usr_1"].DisplayName = "changed"
	snapshot.Users["usr_2"] = &entity.User{ID: "usr_2"}

	fresh := store.Snapshot()
	assert.Equal(t, "Ana", fresh.Users["usr_1"].DisplayName)
	assert.NotContains(t, fresh.Users, "usr_2")
}

func TestUpdatePersistsFullDocument(t *testing.T) {
	path := tempStorePath(t)
	store, err := Open(path, false)
	require.NoError(t, err)

	require.NoError(t, store.Update(func(doc *Document) error {
		doc.Users["usr_1"] = &entity.User{
			ID:           "usr_1",
			Email:        "ana@example.com",
			PasswordHash: "hash",
			CreatedAt:    time.Now(),
		}
		return nil
	}))

	reopened, err := Open(path, true)
	require.NoError(t, err)
	user := reopened.Snapshot().Users["usr_1"]
	require.NotNil(t, user)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "hash", user.PasswordHash, "credentials must survive the round trip")
}

func TestFailedMutationIsNotPersisted(t *testing.T) {
	path := tempStorePath(t)
	store, err := Open(path, false)
	require.NoError(t, err)

	sentinel := fmt.Errorf("validation failed")
	err = store.Update(func(doc *Document) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	reopened, err := Open(path, true)
	require.NoError(t, err)
	assert.Empty(t, reopened.Snapshot().Users)
}

func TestConcurrentUpdatesNeverInterleave(t *testing.T) {
	path := tempStorePath(t)
	store, err := Open(path, false)
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("usr_%d", i)
			err := store.Update(func(doc *Document) error {
				doc.Users[id] = &entity.User{ID: id}
				doc.Audit = append(doc.Audit, &entity.AuditEntry{
					ID:      fmt.Sprintf("aud_%d", i),
					ActorID: id,
					Action:  "test",
				})
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// No lost updates in memory.
	snapshot := store.Snapshot()
	assert.Len(t, snapshot.Users, writers)
	assert.Len(t, snapshot.Audit, writers)

	// The persisted document reflects every successful mutation.
	reopened, err := Open(path, true)
	require.NoError(t, err)
	assert.Len(t, reopened.Snapshot().Users, writers)
	assert.Len(t, reopened.Snapshot().Audit, writers)
}

func TestMutateCarriesTypedResult(t *testing.T) {
	store, err := Open(tempStorePath(t), false)
	require.NoError(t, err)

	id, err := Mutate(store, func(doc *Document) (string, error) {
		user := &entity.User{ID: "usr_42"}
		doc.Users[user.ID] = user
		return user.ID, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "usr_42", id)

	_, err = Mutate(store, func(doc *Document) (string, error) {
		return "ignored", fmt.Errorf("nope")
	})
	assert.Error(t, err)
}

func TestFindConversationMatchesUnorderedPair(t *testing.T) {
	doc := NewDocument()
	doc.Conversations["cnv_1"] = &entity.Conversation{
		ID:           "cnv_1",
		ListingID:    "lst_1",
		Participants: []string{"usr_a", "usr_b"},
	}
	doc.Conversations["cnv_2"] = &entity.Conversation{
		ID:           "cnv_2",
		Participants: []string{"usr_a", "usr_b"},
	}

	assert.Equal(t, "cnv_1", doc.FindConversation("lst_1", "usr_b", "usr_a").ID)
	assert.Equal(t, "cnv_2", doc.FindConversation("", "usr_a", "usr_b").ID)
	assert.Nil(t, doc.FindConversation("lst_2", "usr_a", "usr_b"))
}

func TestBlockedBetweenEitherDirection(t *testing.T) {
	doc := NewDocument()
	doc.Blocks["blk_1"] = &entity.Block{ID: "blk_1", OwnerID: "usr_a", TargetID: "usr_b"}

	assert.True(t, doc.BlockedBetween("usr_a", "usr_b"))
	assert.True(t, doc.BlockedBetween("usr_b", "usr_a"))
	assert.False(t, doc.BlockedBetween("usr_a", "usr_c"))
}
