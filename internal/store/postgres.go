// ABOUTME: PostgreSQL dialect for the SQL store using the pgx stdlib driver
// ABOUTME: Uses ON CONFLICT for conditional inserts and numbered placeholders

package store

import (
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var postgresDialect = &dialect{
	name:     "postgres",
	driver:   "pgx",
	numbered: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			name       TEXT PRIMARY KEY,
			contact    TEXT,
			avatar     BYTEA,
			privilege  SMALLINT NOT NULL DEFAULT 0,
			pubkey     TEXT NOT NULL,
			created_at TEXT NOT NULL,

			CHECK (privilege IN (0, 1))
		)`,
		`CREATE TABLE IF NOT EXISTS challenges (
			nonce      TEXT PRIMARY KEY,
			user_name  TEXT NOT NULL REFERENCES users(name) ON DELETE CASCADE,
			expires_at BIGINT NOT NULL
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
		INSERT INTO users (name, contact, avatar, privilege, pubkey, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO NOTHING
	`,
	upsertWord: `
		INSERT INTO words (word, body, updated_at, updated_by) VALUES (?, ?, ?, ?)
		ON CONFLICT (word) DO UPDATE SET
			body = EXCLUDED.body, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
	`,
	upsertKanji: `
		INSERT INTO kanji (kanji, body, updated_at, updated_by) VALUES (?, ?, ?, ?)
		ON CONFLICT (kanji) DO UPDATE SET
			body = EXCLUDED.body, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
	`,
}
