// ABOUTME: Unit tests for MockStore to ensure behavior matches SQLStore
// ABOUTME: Focuses on copy semantics and edge cases specific to the in-memory implementation

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_GetUser_ReturnsCopy(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	n, err := store.InsertUserIfAbsent(ctx, &User{Name: "alice", PublicKey: "k", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := store.GetUser(ctx, "alice")
	require.NoError(t, err)
	got.Privilege = 1

	creds, err := store.GetCredentials(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, creds.Privilege, "mutating a returned user must not change the store")
}

func TestMockStore_InsertUserIfAbsent_CopiesInput(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	user := &User{Name: "alice", PublicKey: "original", CreatedAt: time.Now().UTC()}
	_, err := store.InsertUserIfAbsent(ctx, user)
	require.NoError(t, err)

	user.PublicKey = "changed"

	creds, err := store.GetCredentials(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "original", creds.PublicKey)
}

func TestMockStore_EntryBodyIsCopied(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	body := []byte(`{"kanji":"語"}`)
	require.NoError(t, store.PutKanji(ctx, &Entry{Key: "語", Body: body, UpdatedAt: time.Now()}))
	body[2] = 'X'

	got, err := store.GetKanji(ctx, "語")
	require.NoError(t, err)
	assert.Equal(t, `{"kanji":"語"}`, string(got.Body))

	got.Body[2] = 'Y'
	again, err := store.GetKanji(ctx, "語")
	require.NoError(t, err)
	assert.Equal(t, `{"kanji":"語"}`, string(again.Body))
}

func TestMockStore_ChallengeCount(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	_, err := store.InsertUserIfAbsent(ctx, &User{Name: "alice", PublicKey: "k", CreatedAt: time.Now()})
	require.NoError(t, err)

	assert.Equal(t, 0, store.ChallengeCount())

	_, err = store.InsertChallenge(ctx, &Challenge{Nonce: "a", UserName: "alice", ExpiresAt: time.Now().Add(time.Minute)})
	require.NoError(t, err)
	_, err = store.InsertChallenge(ctx, &Challenge{Nonce: "b", UserName: "ghost", ExpiresAt: time.Now().Add(time.Minute)})
	require.NoError(t, err)

	assert.Equal(t, 1, store.ChallengeCount(), "challenge for unknown user is not stored")
}

func TestMockStore_ExpiryBoundary(t *testing.T) {
	// An expiry equal to now is not yet expired, matching "expires_at < now".
	store := NewMockStore()
	ctx := context.Background()
	now := time.Now()

	_, err := store.InsertUserIfAbsent(ctx, &User{Name: "alice", PublicKey: "k", CreatedAt: now})
	require.NoError(t, err)
	_, err = store.InsertChallenge(ctx, &Challenge{Nonce: "edge", UserName: "alice", ExpiresAt: now})
	require.NoError(t, err)

	n, err := store.DeleteExpiredChallenges(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, 1, store.ChallengeCount())
}
