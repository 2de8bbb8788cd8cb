// ABOUTME: MySQL dialect for the SQL store using go-sql-driver/mysql
// ABOUTME: Uses INSERT IGNORE for conditional inserts; key columns are binary-collated VARCHAR

package store

import (
	"fmt"

	"github.com/go-sql-driver/mysql" // MySQL driver
)

var mysqlDialect = &dialect{
	name:   "mysql",
	driver: "mysql",
	// In MySQL, indexed columns need VARCHAR with an explicit length. Keys use a
	// binary collation so lookups compare exact bytes, as sqlite and postgres do.
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			name       VARCHAR(255) COLLATE utf8mb4_bin NOT NULL PRIMARY KEY,
			contact    TEXT,
			avatar     LONGBLOB,
			privilege  TINYINT NOT NULL DEFAULT 0,
			pubkey     TEXT NOT NULL,
			created_at VARCHAR(64) NOT NULL,

			CHECK (privilege IN (0, 1))
		)`,
		`CREATE TABLE IF NOT EXISTS challenges (
			nonce      VARCHAR(64) COLLATE utf8mb4_bin NOT NULL PRIMARY KEY,
			user_name  VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
			expires_at BIGINT NOT NULL,
			INDEX idx_challenges_expires (expires_at),
			INDEX idx_challenges_user (user_name),
			FOREIGN KEY (user_name) REFERENCES users (name) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS words (
			word       VARCHAR(255) COLLATE utf8mb4_bin NOT NULL PRIMARY KEY,
			body       LONGTEXT NOT NULL,
			updated_at VARCHAR(64) NOT NULL,
			updated_by VARCHAR(255) COLLATE utf8mb4_bin
		)`,
		`CREATE TABLE IF NOT EXISTS kanji (
			kanji      VARCHAR(16) COLLATE utf8mb4_bin NOT NULL PRIMARY KEY,
			body       LONGTEXT NOT NULL,
			updated_at VARCHAR(64) NOT NULL,
			updated_by VARCHAR(255) COLLATE utf8mb4_bin
		)`,
	},
	insertUserIgnore: `
		INSERT IGNORE INTO users (name, contact, avatar, privilege, pubkey, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
	upsertWord: `
		INSERT INTO words (word, body, updated_at, updated_by) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			body = VALUES(body), updated_at = VALUES(updated_at), updated_by = VALUES(updated_by)
	`,
	upsertKanji: `
		INSERT INTO kanji (kanji, body, updated_at, updated_by) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			body = VALUES(body), updated_at = VALUES(updated_at), updated_by = VALUES(updated_by)
	`,
}

// mysqlDSN validates the DSN ("user:password@tcp(host:port)/dbname") and
// forces the settings the store relies on.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.MultiStatements = false
	// Affected rows must count changed rows, not matched rows.
	cfg.ClientFoundRows = false
	return cfg.FormatDSN(), nil
}
