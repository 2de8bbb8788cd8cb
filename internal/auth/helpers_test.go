// ABOUTME: Shared test helpers for auth: key generation, signing clients and a fake clock
// ABOUTME: Clients sign exactly as an external caller would, through the JSON wire form

package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/otango/otango/internal/blocking"
	"github.com/otango/otango/internal/store"
)

// fakeClock is a Clock tests can move forward.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pemPublicKey(t *testing.T, pub crypto.PublicKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func newEd25519Signer(t *testing.T) crypto.Signer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}

func newECDSASigner(t *testing.T) crypto.Signer {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return priv
}

func newRSASigner(t *testing.T) crypto.Signer {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return priv
}

// testClient holds a keypair and signs requests the way a remote client would.
type testClient struct {
	name   string
	signer crypto.Signer
	pubkey string
}

func newTestClient(t *testing.T, name string) *testClient {
	t.Helper()
	signer := newEd25519Signer(t)
	return &testClient{name: name, signer: signer, pubkey: pemPublicKey(t, signer.Public())}
}

func (c *testClient) certificate(t *testing.T) *Signed[Certificate] {
	t.Helper()
	signed, err := Sign(c.signer, Certificate{
		Name:      c.name,
		PublicKey: c.pubkey,
		Created:   time.Date(2024, 3, 1, 11, 59, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return overTheWire(t, signed)
}

func (c *testClient) nameProof(t *testing.T) *Signed[string] {
	t.Helper()
	signed, err := Sign(c.signer, c.name)
	require.NoError(t, err)
	return overTheWire(t, signed)
}

func signEnvelope[T any](t *testing.T, c *testClient, nonce string, data T) *Signed[Envelope[T]] {
	t.Helper()
	signed, err := Sign(c.signer, Envelope[T]{User: c.name, Challenge: nonce, Data: data})
	require.NoError(t, err)
	return overTheWire(t, signed)
}

// overTheWire encodes and decodes a signed value so tests exercise the
// server's view of the bytes.
func overTheWire[T any](t *testing.T, signed *Signed[T]) *Signed[T] {
	t.Helper()
	b, err := json.Marshal(signed)
	require.NoError(t, err)

	var out Signed[T]
	require.NoError(t, json.Unmarshal(b, &out))
	return &out
}

// newTestService builds a Service over st with a fake clock.
func newTestService(t *testing.T, st store.Store) (*Service, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	svc, err := NewService(Config{
		Users:      st,
		Challenges: st,
		Pool:       blocking.New(8),
		Clock:      clock,
		Logger:     quietLogger(),
	})
	require.NoError(t, err)
	return svc, clock
}

// registered registers c and issues one challenge for it.
func registered(t *testing.T, svc *Service, c *testClient) string {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Register(ctx, c.certificate(t))
	require.NoError(t, err)

	nonce, err := svc.IssueChallenge(ctx, c.nameProof(t))
	require.NoError(t, err)
	return nonce
}
