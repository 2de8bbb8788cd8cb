// ABOUTME: Request authentication for signed, challenge-bound envelopes
// ABOUTME: Lookup, signature, challenge and privilege are checked in a fixed order

package auth

import (
	"context"
	"fmt"
)

// Envelope binds a payload to a user and a single-use challenge.
type Envelope[T any] struct {
	User      string `json:"user"`
	Challenge string `json:"challenge"`
	Data      T      `json:"data"`
}

// Authenticated is the result of a successful Authenticate.
type Authenticated[T any] struct {
	Principal
	Data T
}

// Authenticate verifies a signed envelope and returns its payload. The checks
// run in this order and stop at the first failure:
//
//  1. the user must exist (ErrUnknownUser)
//  2. the signature must verify with the stored key (ErrSignatureInvalid);
//     the challenge is left untouched
//  3. the challenge must be consumed (ErrChallengeInvalid)
//  4. the user's privilege must be at least required
//     (ErrInsufficientPrivilege); the challenge stays consumed
//
// Once the lookup starts, the sequence runs to completion even if ctx is
// cancelled.
func Authenticate[T any](ctx context.Context, s *Service, signed *Signed[Envelope[T]], required Privilege) (*Authenticated[T], error) {
	env := &signed.Data

	var result *Authenticated[T]
	err := s.do(ctx, func(ctx context.Context) error {
		creds, err := s.credentials(ctx, env.User)
		if err != nil {
			return err
		}
		held, err := PrivilegeFromLevel(creds.Privilege)
		if err != nil {
			return storageError("loading credentials", err)
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

		consumed, err := s.ledger.Consume(ctx, env.User, env.Challenge)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrChallengeInvalid
		}

		if !AtLeast(held, required) {
			return fmt.Errorf("%w: %s required", ErrInsufficientPrivilege, required)
		}

		result = &Authenticated[T]{
			Principal: Principal{Name: env.User, Privilege: held},
			Data:      env.Data,
		}
		return nil
	})
	if err != nil {
		s.reject("authenticate", env.User, err)
		return nil, err
	}

	s.logger.Debug("request authenticated", "user", env.User, "privilege", result.Privilege)
	return result, nil
}
