// ABOUTME: Challenge persistence for the SQL store
// ABOUTME: Single-statement insert and delete whose row counts decide validity

package store

import (
	"context"
	"fmt"
	"time"
)

// InsertChallenge stores a challenge for an existing user. The insert selects
// from users, so it writes nothing when the user is unknown and the returned
// count is 0.
func (s *SQLStore) InsertChallenge(ctx context.Context, challenge *Challenge) (int64, error) {
	query := `
		INSERT INTO challenges (nonce, user_name, expires_at)
		SELECT ?, name, ? FROM users WHERE name = ?
	`

	n, err := s.exec(ctx, query,
		challenge.Nonce,
		challenge.ExpiresAt.UnixNano(),
		challenge.UserName,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return 0, fmt.Errorf("inserting challenge: %w", ErrDuplicate)
		}
		return 0, fmt.Errorf("inserting challenge: %w", err)
	}
	return n, nil
}

// DeleteExpiredChallenges removes every challenge whose expiry is before now.
func (s *SQLStore) DeleteExpiredChallenges(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.exec(ctx, `DELETE FROM challenges WHERE expires_at < ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("pruning challenges: %w", err)
	}
	if n > 0 {
		s.logger.Debug("pruned expired challenges", "count", n)
	}
	return n, nil
}

// DeleteChallenge removes the challenge matching user and nonce. Under
// concurrent calls for the same pair the engine lets exactly one delete
// affect the row; every other call reports 0.
func (s *SQLStore) DeleteChallenge(ctx context.Context, userName, nonce string) (int64, error) {
	n, err := s.exec(ctx, `DELETE FROM challenges WHERE nonce = ? AND user_name = ?`, nonce, userName)
	if err != nil {
		return 0, fmt.Errorf("deleting challenge: %w", err)
	}
	return n, nil
}
