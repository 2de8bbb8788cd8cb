// ABOUTME: End-to-end scenario tests for auth using real SQLite
// ABOUTME: Validates the full register, challenge, request flow without any mocking

package auth

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/otango/otango/internal/store"
)

// createTestStore creates a real SQLite store in a temp directory.
func createTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create SQLite store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestScenario_FullAuthFlow(t *testing.T) {
	// 1. Real SQLite store and service
	s := createTestStore(t)
	svc, _ := newTestService(t, s)
	ctx := context.Background()

	// 2. Alice registers with a self-signed certificate
	alice := newTestClient(t, "alice")
	id, err := svc.Register(ctx, alice.certificate(t))
	require.NoError(t, err)
	assert.Equal(t, None, id.Privilege)

	// 3. Alice proves her name and receives a challenge
	nonce, err := svc.IssueChallenge(ctx, alice.nameProof(t))
	require.NoError(t, err)

	// 4. A signed envelope carrying "hello" authenticates once
	req := signEnvelope(t, alice, nonce, "hello")
	got, err := Authenticate(ctx, svc, req, None)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Data)

	// 5. The same request replayed is rejected
	_, err = Authenticate(ctx, svc, req, None)
	assert.ErrorIs(t, err, ErrChallengeInvalid)

	// 6. Registering the name again fails
	_, err = svc.Register(ctx, newTestClient(t, "alice").certificate(t))
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestScenario_AdminGate(t *testing.T) {
	s := createTestStore(t)
	svc, _ := newTestService(t, s)
	ctx := context.Background()

	alice := newTestClient(t, "alice")
	nonce := registered(t, svc, alice)

	_, err := Authenticate(ctx, svc, signEnvelope(t, alice, nonce, "edit"), Admin)
	assert.ErrorIs(t, err, ErrInsufficientPrivilege)

	require.NoError(t, svc.SetPrivilege(ctx, "alice", Admin))

	nonce, err = svc.IssueChallenge(ctx, alice.nameProof(t))
	require.NoError(t, err)
	got, err := Authenticate(ctx, svc, signEnvelope(t, alice, nonce, "edit"), Admin)
	require.NoError(t, err)
	assert.Equal(t, Admin, got.Privilege)
}

func TestScenario_ConcurrentConsumeSQLite(t *testing.T) {
	s := createTestStore(t)
	svc, _ := newTestService(t, s)

	alice := newTestClient(t, "alice")
	nonce := registered(t, svc, alice)
	req := signEnvelope(t, alice, nonce, "hello")

	const attempts = 16
	var ok atomic.Int32
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, err := Authenticate(context.Background(), svc, req, None)
			if err == nil {
				ok.Add(1)
				return nil
			}
			if KindOf(err) == KindChallengeInvalid {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), ok.Load())
}

func TestScenario_RegistrationRaceSQLite(t *testing.T) {
	s := createTestStore(t)
	svc, _ := newTestService(t, s)

	const contenders = 10
	var wins atomic.Int32
	var g errgroup.Group
	for i := 0; i < contenders; i++ {
		cert := newTestClient(t, "alice").certificate(t)
		g.Go(func() error {
			_, err := svc.Register(context.Background(), cert)
			if err == nil {
				wins.Add(1)
				return nil
			}
			if KindOf(err) == KindUserExists {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load())
}

func TestScenario_ChallengeSurvivesRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "restart.db")
	ctx := context.Background()
	alice := newTestClient(t, "alice")

	s1, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	svc1, _ := newTestService(t, s1)
	nonce := registered(t, svc1, alice)
	require.NoError(t, s1.Close())

	s2, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s2.Close() })
	svc2, _ := newTestService(t, s2)

	_, err = Authenticate(ctx, svc2, signEnvelope(t, alice, nonce, "hello"), None)
	assert.NoError(t, err)
}
