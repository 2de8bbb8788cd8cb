// Package store provides persistent storage for otango.
//
// # Architecture
//
// The store package is split into narrow interfaces so each consumer depends
// only on what it uses:
//
//   - UserStore: Account rows and the credentials used to verify signatures
//   - ChallengeStore: Outstanding single-use nonces
//   - DictionaryStore: Word and kanji documents
//
// SQLStore implements all of them over database/sql. The dialect is chosen at
// Open time:
//
//   - sqlite: modernc.org/sqlite, pure Go, the default
//   - postgres: github.com/jackc/pgx/v5/stdlib
//   - mysql: github.com/go-sql-driver/mysql
//
// # Atomicity
//
// Registration and challenge consumption never read before they write. Each is
// a single statement and its affected row count is the answer:
//
//	INSERT OR IGNORE INTO users ...          -- 1 = registered, 0 = name taken
//	INSERT INTO challenges ... SELECT ...    -- 0 = unknown user
//	DELETE FROM challenges WHERE nonce = ?   -- 1 = consumed, 0 = invalid
//
// The engine serializes these, so concurrent callers racing on the same key
// see exactly one winner.
//
// # SQLite Configuration
//
// Pragmas are passed in the DSN so every pooled connection gets them:
//
//	busy_timeout(5000)
//	journal_mode(WAL)
//	foreign_keys(1)
//
// # Testing
//
// Use NewMockStore() for unit tests:
//
//	store := store.NewMockStore()
//	// store implements Store
//
// Use NewSQLiteStore(filepath.Join(t.TempDir(), "test.db")) for integration
// tests with real SQLite.
package store
