// ABOUTME: Authentication service tying certificates, credentials and the challenge ledger together
// ABOUTME: Storage calls run on a bounded pool, detached from request cancellation once started

package auth

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/otango/otango/internal/blocking"
	"github.com/otango/otango/internal/cache"
	"github.com/otango/otango/internal/store"
)

// Config configures a Service.
type Config struct {
	Users      store.UserStore
	Challenges store.ChallengeStore

	// Pool bounds concurrent storage calls. Nil creates a default pool.
	Pool *blocking.Pool

	// Clock and Random are injectable for tests.
	Clock  Clock
	Random io.Reader

	// ChallengeTTL defaults to DefaultChallengeTTL.
	ChallengeTTL time.Duration

	Logger *slog.Logger
}

// Service implements registration, challenge issue and identity lookup.
// Request authentication is the package-level Authenticate.
type Service struct {
	users  store.UserStore
	ledger *Ledger
	pool   *blocking.Pool
	clock  Clock
	keys   *cache.TTL[string, crypto.PublicKey]
	logger *slog.Logger
}

const (
	keyCacheTTL  = 10 * time.Minute
	keyCacheSize = 1024
)

// Identity is a registered account.
type Identity struct {
	Name      string    `json:"name"`
	Contact   *string   `json:"contact,omitempty"`
	Avatar    []byte    `json:"avatar,omitempty"`
	Privilege Privilege `json:"privilege"`
	PublicKey string    `json:"pubkey,omitempty"`
	Created   time.Time `json:"created"`
}

// Fingerprint returns the SHA256 fingerprint of the identity's key.
func (i *Identity) Fingerprint() (string, error) {
	pub, err := ParsePublicKey(i.PublicKey)
	if err != nil {
		return "", err
	}
	return Fingerprint(pub)
}

// NewService creates a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if cfg.Challenges == nil {
		return nil, errors.New("auth: challenge store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	pool := cfg.Pool
	if pool == nil {
		pool = blocking.New(0)
	}

	return &Service{
		users: cfg.Users,
		ledger: NewLedger(LedgerConfig{
			Store:  cfg.Challenges,
			Clock:  clock,
			Random: cfg.Random,
			TTL:    cfg.ChallengeTTL,
			Logger: logger,
		}),
		pool:   pool,
		clock:  clock,
		keys:   cache.New[string, crypto.PublicKey](keyCacheTTL, keyCacheSize),
		logger: logger,
	}, nil
}

// Register verifies a self-signed certificate and creates the account with
// privilege None. The insert is conditional; losing to an existing name
// returns ErrUserExists.
func (s *Service) Register(ctx context.Context, signed *Signed[Certificate]) (*Identity, error) {
	cert, err := VerifyCertificate(signed)
	if err != nil {
		s.reject("register", signed.Data.Name, err)
		return nil, err
	}

	user := &store.User{
		Name:      cert.Name,
		Contact:   cert.Contact,
		Privilege: None.Level(),
		PublicKey: cert.PublicKey,
		CreatedAt: s.clock.Now().UTC(),
	}

	var inserted int64
	err = s.do(ctx, func(ctx context.Context) error {
		n, err := s.users.InsertUserIfAbsent(ctx, user)
		if err != nil {
			return storageError("inserting user", err)
		}
		inserted = n
		return nil
	})
	if err != nil {
		s.reject("register", cert.Name, err)
		return nil, err
	}
	if inserted != 1 {
		err := fmt.Errorf("%w: %q", ErrUserExists, cert.Name)
		s.reject("register", cert.Name, err)
		return nil, err
	}

	s.logger.Info("registered user", "user", cert.Name, "fingerprint", fingerprintOf(cert.PublicKey))
	return identityFromUser(user, None), nil
}

// IssueChallenge verifies that the caller signed their user name with the
// registered key, then issues a challenge for that user.
func (s *Service) IssueChallenge(ctx context.Context, signed *Signed[string]) (string, error) {
	name := signed.Data

	var nonce string
	err := s.do(ctx, func(ctx context.Context) error {
		creds, err := s.credentials(ctx, name)
		if err != nil {
			return err
		}
		pub, err := s.publicKey(creds.PublicKey)
		if err != nil {
			return err
		}
		msg, err := signed.Message()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		if err := VerifySignature(pub, msg, signed.Signature); err != nil {
			return err
		}

		nonce, err = s.ledger.Issue(ctx, name)
		return err
	})
	if err != nil {
		s.reject("challenge", name, err)
		return "", err
	}
	return nonce, nil
}

// Identity returns the account registered under name.
func (s *Service) Identity(ctx context.Context, name string) (*Identity, error) {
	var user *store.User
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetUser(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrUnknownUser, name)
		}
		if err != nil {
			return storageError("loading user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	privilege, err := PrivilegeFromLevel(user.Privilege)
	if err != nil {
		return nil, storageError("loading user", err)
	}
	return identityFromUser(user, privilege), nil
}

// SetPrivilege changes a user's privilege. It is the administrative path and
// is not reachable through signed requests.
func (s *Service) SetPrivilege(ctx context.Context, name string, privilege Privilege) error {
	if !privilege.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, privilege)
	}

	err := s.do(ctx, func(ctx context.Context) error {
		err := s.users.SetPrivilege(ctx, name, privilege.Level())
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrUnknownUser, name)
		}
		if err != nil {
			return storageError("setting privilege", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("privilege changed", "user", name, "privilege", privilege)
	return nil
}

// credentials loads the verification material for name.
func (s *Service) credentials(ctx context.Context, name string) (*store.Credentials, error) {
	creds, err := s.users.GetCredentials(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUser, name)
	}
	if err != nil {
		return nil, storageError("loading credentials", err)
	}
	return creds, nil
}

// publicKey parses stored key text, reusing earlier results. Stored keys are
// immutable, so the text alone identifies the key.
func (s *Service) publicKey(text string) (crypto.PublicKey, error) {
	return s.keys.GetOrLoad(text, ParsePublicKey)
}

// do runs fn on the pool. Giving up while waiting for a slot is reported as a
// storage failure; fn itself is never interrupted.
func (s *Service) do(ctx context.Context, fn func(context.Context) error) error {
	err := s.pool.Do(ctx, fn)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return storageError("acquiring worker", err)
	}
	return err
}

// reject logs a failed operation without any key or signature material.
func (s *Service) reject(op, user string, err error) {
	kind := KindOf(err)
	if kind == KindStorage || kind == KindUnknown {
		s.logger.Error("auth operation failed", "op", op, "user", user, "error", err)
		return
	}
	s.logger.Info("request rejected", "op", op, "user", user, "kind", kind)
}

func identityFromUser(u *store.User, privilege Privilege) *Identity {
	return &Identity{
		Name:      u.Name,
		Contact:   u.Contact,
		Avatar:    u.Avatar,
		Privilege: privilege,
		PublicKey: u.PublicKey,
		Created:   u.CreatedAt,
	}
}
