package api

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/otango/otango/internal/auth"
	"github.com/otango/otango/internal/blocking"
	"github.com/otango/otango/internal/dictionary"
	"github.com/otango/otango/internal/store"
)

type testEnv struct {
	server *httptest.Server
	store  *store.MockStore
	auth   *auth.Service
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	st := store.NewMockStore()
	pool := blocking.New(8)
	svc, err := auth.NewService(auth.Config{
		Users:      st,
		Challenges: st,
		Pool:       pool,
		Logger:     quietLogger(),
	})
	require.NoError(t, err)

	opts.Auth = svc
	opts.Dictionary = dictionary.NewService(st, pool, quietLogger())
	opts.Logger = quietLogger()

	a, err := New(opts)
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, store: st, auth: svc}
}

func (e *testEnv) get(t *testing.T, path string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := noRedirectClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case []byte:
		raw = b
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	resp, err := noRedirectClient.Post(e.server.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

var noRedirectClient = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

type testClient struct {
	name   string
	key    ed25519.PrivateKey
	pubkey string
}

func newTestClient(t *testing.T, name string) *testClient {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	return &testClient{
		name:   name,
		key:    priv,
		pubkey: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
	}
}

func (c *testClient) certificate(t *testing.T) *auth.Signed[auth.Certificate] {
	t.Helper()
	signed, err := auth.Sign(c.key, auth.Certificate{
		Name:      c.name,
		PublicKey: c.pubkey,
		Created:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return signed
}

func (c *testClient) register(t *testing.T, e *testEnv) {
	t.Helper()
	resp := e.post(t, "/auth/register", c.certificate(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (c *testClient) challenge(t *testing.T, e *testEnv) string {
	t.Helper()
	proof, err := auth.Sign(c.key, c.name)
	require.NoError(t, err)

	resp := e.post(t, "/auth/challenge", proof)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var nonce string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&nonce))
	return nonce
}

func signEnvelope[T any](t *testing.T, c *testClient, nonce string, data T) *auth.Signed[auth.Envelope[T]] {
	t.Helper()
	signed, err := auth.Sign(c.key, auth.Envelope[T]{User: c.name, Challenge: nonce, Data: data})
	require.NoError(t, err)
	return signed
}

func (e *testEnv) promote(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, e.auth.SetPrivilege(context.Background(), name, auth.Admin))
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}
