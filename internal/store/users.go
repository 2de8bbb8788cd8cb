// ABOUTME: User persistence for the SQL store
// ABOUTME: Conditional insert reports affected rows so registration races resolve in SQL

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetCredentials returns the public key and privilege for name.
// Returns ErrNotFound if no user has that name.
func (s *SQLStore) GetCredentials(ctx context.Context, name string) (*Credentials, error) {
	var creds Credentials
	err := s.queryRow(ctx, `SELECT pubkey, privilege FROM users WHERE name = ?`, name).
		Scan(&creds.PublicKey, &creds.Privilege)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	return &creds, nil
}

// GetUser retrieves a user by name.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLStore) GetUser(ctx context.Context, name string) (*User, error) {
	query := `
		SELECT name, contact, avatar, privilege, pubkey, created_at
		FROM users
		WHERE name = ?
	`

	var user User
	var contact sql.NullString
	var createdAtStr string

	err := s.queryRow(ctx, query, name).Scan(
		&user.Name,
		&contact,
		&user.Avatar,
		&user.Privilege,
		&user.PublicKey,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if contact.Valid {
		user.Contact = &contact.String
	}

	user.CreatedAt, err = parseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &user, nil
}

// InsertUserIfAbsent inserts user unless the name is already taken. The
// returned count is the only signal of success: 1 if inserted, 0 if the
// name existed. No existence check precedes the insert.
func (s *SQLStore) InsertUserIfAbsent(ctx context.Context, user *User) (int64, error) {
	var contact sql.NullString
	if user.Contact != nil {
		contact = sql.NullString{String: *user.Contact, Valid: true}
	}

	n, err := s.exec(ctx, s.dialect.insertUserIgnore,
		user.Name,
		contact,
		user.Avatar,
		user.Privilege,
		user.PublicKey,
		formatTime(user.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}

	if n == 1 {
		s.logger.Debug("inserted user", "name", user.Name)
	}
	return n, nil
}

// SetPrivilege updates a user's privilege level.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLStore) SetPrivilege(ctx context.Context, name string, privilege int) error {
	n, err := s.exec(ctx, `UPDATE users SET privilege = ? WHERE name = ?`, privilege, name)
	if err != nil {
		return fmt.Errorf("updating privilege: %w", err)
	}
	// MySQL reports 0 when the value is unchanged, so confirm the user exists.
	if n == 0 {
		if _, err := s.GetCredentials(ctx, name); err != nil {
			return err
		}
	}

	s.logger.Info("updated privilege", "name", name, "privilege", privilege)
	return nil
}
