// ABOUTME: Store interfaces and data types for otango persistence
// ABOUTME: Defines User, Challenge and dictionary Entry plus the store interfaces

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a record with the same key already exists
var ErrDuplicate = errors.New("duplicate record")

// User is the persisted identity of a registered key holder.
type User struct {
	Name      string
	Contact   *string
	Avatar    []byte
	Privilege int // 0 = none, 1 = admin
	PublicKey string
	CreatedAt time.Time
}

// Credentials is the subset of a User needed to verify a signed request.
type Credentials struct {
	PublicKey string
	Privilege int
}

// Challenge is an outstanding single-use nonce bound to a user.
type Challenge struct {
	Nonce     string
	UserName  string
	ExpiresAt time.Time
}

// Entry is a dictionary record stored as an opaque JSON document.
type Entry struct {
	Key       string
	Body      []byte
	UpdatedAt time.Time
	UpdatedBy string
}

// UserStore persists identities.
type UserStore interface {
	// GetCredentials returns the public key and privilege for name, or ErrNotFound.
	GetCredentials(ctx context.Context, name string) (*Credentials, error)

	// GetUser returns the full identity for name, or ErrNotFound.
	GetUser(ctx context.Context, name string) (*User, error)

	// InsertUserIfAbsent inserts the user unless the name is taken and
	// reports how many rows were written (0 or 1).
	InsertUserIfAbsent(ctx context.Context, user *User) (int64, error)

	// SetPrivilege changes a user's privilege level. Returns ErrNotFound
	// if no such user exists.
	SetPrivilege(ctx context.Context, name string, privilege int) error
}

// ChallengeStore persists outstanding challenges.
type ChallengeStore interface {
	// InsertChallenge stores the challenge if its user exists and reports
	// how many rows were written (0 means the user is unknown).
	InsertChallenge(ctx context.Context, challenge *Challenge) (int64, error)

	// DeleteExpiredChallenges removes every challenge that expired before now.
	DeleteExpiredChallenges(ctx context.Context, now time.Time) (int64, error)

	// DeleteChallenge removes the challenge matching user and nonce and
	// reports how many rows were deleted.
	DeleteChallenge(ctx context.Context, userName, nonce string) (int64, error)
}

// DictionaryStore persists word and kanji documents.
type DictionaryStore interface {
	GetWord(ctx context.Context, word string) (*Entry, error)
	PutWord(ctx context.Context, entry *Entry) error
	GetKanji(ctx context.Context, kanji string) (*Entry, error)
	PutKanji(ctx context.Context, entry *Entry) error
}

// Store combines every persistence interface used by the server.
type Store interface {
	UserStore
	ChallengeStore
	DictionaryStore

	// Close releases any resources held by the store
	Close() error
}
