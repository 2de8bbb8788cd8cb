package main

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otango/otango/internal/config"
	"github.com/otango/otango/internal/store"
)

func init() {
	color.NoColor = true
}

// run executes the command tree with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes a config using a fresh SQLite database and returns its path.
func writeConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "otango.db")
	cfgPath = filepath.Join(dir, "otango.yaml")
	content := "server:\n  http_addr: 127.0.0.1:0\ndatabase:\n  driver: sqlite\n  path: " + dbPath + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	return cfgPath, dbPath
}

func seedUser(t *testing.T, dbPath, name string) {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)

	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer st.Close()

	n, err := st.InsertUserIfAbsent(context.Background(), &store.User{
		Name:      name,
		PublicKey: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "otango.yaml")

	out, err := run(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)

	_, err = run(t, "init", "--config", path)
	assert.Error(t, err, "init never overwrites")
}

func TestInit_UsesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	t.Setenv(config.EnvConfigPath, path)

	_, err := run(t, "init")
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestPrivilegeAndUser(t *testing.T) {
	cfgPath, dbPath := writeConfig(t)
	seedUser(t, dbPath, "alice")

	out, err := run(t, "user", "alice", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Name:        alice")
	assert.Contains(t, out, "Privilege:   None")
	assert.Contains(t, out, "Fingerprint: SHA256:")
	assert.NotContains(t, out, "BEGIN PUBLIC KEY")

	out, err = run(t, "privilege", "alice", "admin", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "alice is now Admin\n", out)

	out, err = run(t, "user", "alice", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Privilege:   Admin")
}

func TestPrivilege_Errors(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := run(t, "privilege", "ghost", "Admin", "--config", cfgPath)
	assert.Error(t, err)

	_, err = run(t, "privilege", "ghost", "Root", "--config", cfgPath)
	assert.Error(t, err)

	_, err = run(t, "privilege", "ghost", "--config", cfgPath)
	assert.Error(t, err, "two arguments are required")
}

func TestUser_MissingConfig(t *testing.T) {
	_, err := run(t, "user", "alice", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "loading config"))
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)

	logger.Info("hidden")
	logger.With("component", "auth").WithGroup("req").Warn("shown", "user", "alice")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WRN shown")
	assert.Contains(t, out, "component=auth")
	assert.Contains(t, out, "req.user=alice")
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("hello", "user", "alice")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"user":"alice"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestPrintBanner(t *testing.T) {
	cfg := config.Default()
	cfg.Tailscale.Enabled = true
	cfg.Tailscale.Funnel = true

	var buf bytes.Buffer
	printBanner(&buf, cfg, "/etc/otango.yaml")
	assert.Contains(t, buf.String(), "/etc/otango.yaml")
	assert.Contains(t, buf.String(), "Tailscale: otango [funnel]")
}
