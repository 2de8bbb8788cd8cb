// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite while keeping the same atomicity

package store

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing. Every
// operation holds a single mutex, which gives the same single-winner
// guarantees as the SQL statements it stands in for.
type MockStore struct {
	mu         sync.Mutex
	users      map[string]*User      // keyed by name
	challenges map[string]*Challenge // keyed by nonce
	words      map[string]*Entry
	kanji      map[string]*Entry
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:      make(map[string]*User),
		challenges: make(map[string]*Challenge),
		words:      make(map[string]*Entry),
		kanji:      make(map[string]*Entry),
	}
}

// GetCredentials returns the public key and privilege for name.
func (m *MockStore) GetCredentials(ctx context.Context, name string) (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &Credentials{PublicKey: u.PublicKey, Privilege: u.Privilege}, nil
}

// GetUser retrieves a user by name.
func (m *MockStore) GetUser(ctx context.Context, name string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[name]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	result := *u
	return &result, nil
}

// InsertUserIfAbsent stores the user unless the name is taken.
func (m *MockStore) InsertUserIfAbsent(ctx context.Context, user *User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Name]; exists {
		return 0, nil
	}

	// Make a copy to avoid external modification
	u := *user
	m.users[u.Name] = &u
	return 1, nil
}

// SetPrivilege updates a user's privilege level.
func (m *MockStore) SetPrivilege(ctx context.Context, name string, privilege int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[name]
	if !ok {
		return ErrNotFound
	}
	u.Privilege = privilege
	return nil
}

// InsertChallenge stores a challenge if its user exists.
func (m *MockStore) InsertChallenge(ctx context.Context, challenge *Challenge) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[challenge.UserName]; !ok {
		return 0, nil
	}
	if _, dup := m.challenges[challenge.Nonce]; dup {
		return 0, ErrDuplicate
	}

	c := *challenge
	m.challenges[c.Nonce] = &c
	return 1, nil
}

// DeleteExpiredChallenges removes challenges that expired before now.
func (m *MockStore) DeleteExpiredChallenges(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for nonce, c := range m.challenges {
		if c.ExpiresAt.Before(now) {
			delete(m.challenges, nonce)
			n++
		}
	}
	return n, nil
}

// DeleteChallenge removes the challenge matching user and nonce.
func (m *MockStore) DeleteChallenge(ctx context.Context, userName, nonce string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.challenges[nonce]
	if !ok || c.UserName != userName {
		return 0, nil
	}
	delete(m.challenges, nonce)
	return 1, nil
}

// ChallengeCount returns the number of outstanding challenges.
func (m *MockStore) ChallengeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.challenges)
}

// GetWord retrieves a word document.
func (m *MockStore) GetWord(ctx context.Context, word string) (*Entry, error) {
	return m.getEntry(m.words, word)
}

// PutWord inserts or replaces a word document.
func (m *MockStore) PutWord(ctx context.Context, entry *Entry) error {
	return m.putEntry(m.words, entry)
}

// GetKanji retrieves a kanji document.
func (m *MockStore) GetKanji(ctx context.Context, kanji string) (*Entry, error) {
	return m.getEntry(m.kanji, kanji)
}

// PutKanji inserts or replaces a kanji document.
func (m *MockStore) PutKanji(ctx context.Context, entry *Entry) error {
	return m.putEntry(m.kanji, entry)
}

func (m *MockStore) getEntry(entries map[string]*Entry, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	result := *e
	result.Body = append([]byte(nil), e.Body...)
	return &result, nil
}

func (m *MockStore) putEntry(entries map[string]*Entry, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := *entry
	e.Body = append([]byte(nil), entry.Body...)
	entries[e.Key] = &e
	return nil
}

// Close is a no-op for MockStore.
func (m *MockStore) Close() error {
	return nil
}

// Compile-time interface checks
var (
	_ Store = (*MockStore)(nil)
	_ Store = (*SQLStore)(nil)
)
