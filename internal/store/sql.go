// ABOUTME: database/sql implementation of the Store interface shared by all dialects
// ABOUTME: Handles opening, pooling, schema creation and placeholder rebinding

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxOpenConns bounds the connection pool when no limit is configured.
const DefaultMaxOpenConns = 8

// dialect captures the statements that differ between database engines.
type dialect struct {
	name   string
	driver string

	// schema is executed statement by statement; some drivers reject multi-statement Exec.
	schema []string

	// insertUserIgnore inserts a user and silently does nothing on a name conflict.
	insertUserIgnore string

	// upsertWord and upsertKanji replace a dictionary document.
	upsertWord  string
	upsertKanji string

	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

// Options configures a SQLStore.
type Options struct {
	// Driver is one of "sqlite", "postgres" or "mysql".
	Driver string
	// DSN is the driver specific data source. For sqlite it is a file path.
	DSN string
	// MaxOpenConns bounds the pool; callers block while every connection is busy.
	MaxOpenConns int
	Logger       *slog.Logger
}

// SQLStore implements Store on top of database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect *dialect
	logger  *slog.Logger
}

// Open creates a store for the configured driver and ensures the schema exists.
func Open(ctx context.Context, opts Options) (*SQLStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	var (
		d   *dialect
		dsn = opts.DSN
		err error
	)
	switch opts.Driver {
	case "", "sqlite":
		d = sqliteDialect
		dsn, err = sqliteDSN(opts.DSN)
		if err != nil {
			return nil, err
		}
	case "postgres":
		d = postgresDialect
	case "mysql":
		d = mysqlDialect
		dsn, err = mysqlDSN(opts.DSN)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxConns := opts.MaxOpenConns
	if maxConns <= 0 {
		maxConns = DefaultMaxOpenConns
	}
	// Every connection to :memory: is a separate database.
	if d == sqliteDialect && opts.DSN == ":memory:" {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLStore{
		db:      db,
		dialect: d,
		logger:  logger,
	}

	if err := s.createSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("store initialized", "driver", d.name, "max_open_conns", maxConns)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLStore) createSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	s.logger.Info("closing store")
	return s.db.Close()
}

// Driver reports the dialect name in use.
func (s *SQLStore) Driver() string {
	return s.dialect.name
}

// rebind rewrites ? placeholders for dialects that use numbered parameters.
func (s *SQLStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// formatTime renders timestamps the same way for every dialect.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

// isConstraintViolation checks if the error is a UNIQUE/primary key violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unique constraint") ||
		strings.Contains(errStr, "constraint failed") ||
		strings.Contains(errStr, "duplicate") ||
		strings.Contains(errStr, "23505")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
