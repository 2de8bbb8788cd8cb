// ABOUTME: Challenge ledger issuing and consuming single-use nonces
// ABOUTME: Consumption is a single conditional delete; expired rows are swept lazily

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/otango/otango/internal/store"
)

const (
	// NonceSize is the number of random bytes in a challenge.
	NonceSize = 32

	// DefaultChallengeTTL is how long an issued challenge stays valid.
	DefaultChallengeTTL = 5 * time.Minute
)

// LedgerConfig configures a Ledger. Zero fields take defaults.
type LedgerConfig struct {
	Store  store.ChallengeStore
	Clock  Clock
	Random io.Reader
	TTL    time.Duration
	Logger *slog.Logger
}

// Ledger issues and consumes challenges. It holds no state of its own; the
// store is the only source of truth.
type Ledger struct {
	store  store.ChallengeStore
	clock  Clock
	random io.Reader
	ttl    time.Duration
	logger *slog.Logger
}

// NewLedger creates a Ledger.
func NewLedger(cfg LedgerConfig) *Ledger {
	l := &Ledger{
		store:  cfg.Store,
		clock:  cfg.Clock,
		random: cfg.Random,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}
	if l.clock == nil {
		l.clock = SystemClock{}
	}
	if l.random == nil {
		l.random = rand.Reader
	}
	if l.ttl <= 0 {
		l.ttl = DefaultChallengeTTL
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// TTL returns the lifetime of issued challenges.
func (l *Ledger) TTL() time.Duration {
	return l.ttl
}

// Issue creates a challenge for userName and returns its base64 nonce.
// The insert only writes when the user exists; otherwise ErrUnknownUser.
func (l *Ledger) Issue(ctx context.Context, userName string) (string, error) {
	buf := make([]byte, NonceSize)
	if _, err := io.ReadFull(l.random, buf); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	nonce := base64.StdEncoding.EncodeToString(buf)

	n, err := l.store.InsertChallenge(ctx, &store.Challenge{
		Nonce:     nonce,
		UserName:  userName,
		ExpiresAt: l.clock.Now().Add(l.ttl),
	})
	if err != nil {
		return "", storageError("issuing challenge", err)
	}
	if n == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownUser, userName)
	}

	l.logger.Debug("issued challenge", "user", userName)
	return nonce, nil
}

// Consume deletes the challenge if it belongs to userName and has not
// expired, reporting whether it did. Every call first prunes all expired
// challenges. Concurrent calls for the same challenge see exactly one true.
func (l *Ledger) Consume(ctx context.Context, userName, nonce string) (bool, error) {
	if _, err := l.store.DeleteExpiredChallenges(ctx, l.clock.Now()); err != nil {
		return false, storageError("pruning challenges", err)
	}

	n, err := l.store.DeleteChallenge(ctx, userName, nonce)
	if err != nil {
		return false, storageError("consuming challenge", err)
	}
	return n == 1, nil
}
