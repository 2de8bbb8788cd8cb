// ABOUTME: SQLite dialect for the SQL store using modernc.org/sqlite
// ABOUTME: Pure Go driver; WAL mode and a busy timeout let concurrent writers serialize

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// sqliteBusyTimeout is how long a writer waits for the database lock, in milliseconds.
const sqliteBusyTimeout = 5000

var sqliteDialect = &dialect{
	name:   "sqlite",
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			name       TEXT PRIMARY KEY,
			contact    TEXT,
			avatar     BLOB,
			privilege  INTEGER NOT NULL DEFAULT 0,
			pubkey     TEXT NOT NULL,
			created_at TEXT NOT NULL,

			CHECK (privilege IN (0, 1))
		)`,
		`CREATE TABLE IF NOT EXISTS challenges (
			nonce      TEXT PRIMARY KEY,
			user_name  TEXT NOT NULL REFERENCES users(name) ON DELETE CASCADE,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_expires ON challenges(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_user ON challenges(user_name)`,
		`CREATE TABLE IF NOT EXISTS words (
			word       TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			updated_by TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS kanji (
			kanji      TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			updated_by TEXT
		)`,
	},
	insertUserIgnore: `
		INSERT OR IGNORE INTO users (name, contact, avatar, privilege, pubkey, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
	upsertWord: `
		INSERT INTO words (word, body, updated_at, updated_by) VALUES (?, ?, ?, ?)
		ON CONFLICT(word) DO UPDATE SET
			body = excluded.body, updated_at = excluded.updated_at, updated_by = excluded.updated_by
	`,
	upsertKanji: `
		INSERT INTO kanji (kanji, body, updated_at, updated_by) VALUES (?, ?, ?, ?)
		ON CONFLICT(kanji) DO UPDATE SET
			body = excluded.body, updated_at = excluded.updated_at, updated_by = excluded.updated_by
	`,
}

// sqliteDSN appends the pragmas every pooled connection needs. Setting them with
// Exec would only affect the one connection that ran the statement.
func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("sqlite database path is required")
	}
	if path != ":memory:" {
		// Ensure parent directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating database directory: %w", err)
		}
	}
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		path, sqliteBusyTimeout), nil
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLStore, error) {
	return Open(context.Background(), Options{Driver: "sqlite", DSN: path})
}
