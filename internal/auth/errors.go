// ABOUTME: Sentinel errors for authentication and their classification
// ABOUTME: KindOf maps any error to a Kind so transports can pick a status code

package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrSignatureInvalid means the signature does not match the data and key.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrChallengeInvalid means the challenge is unknown, expired or already used.
	ErrChallengeInvalid = errors.New("challenge expired or invalid")

	// ErrUnknownUser means no credential is registered under the name.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUserExists means registration lost to an existing account.
	ErrUserExists = errors.New("user already exists")

	// ErrInsufficientPrivilege means the user is authenticated but not allowed.
	ErrInsufficientPrivilege = errors.New("insufficient privilege")

	// ErrKeyDecode means public key material could not be parsed.
	ErrKeyDecode = errors.New("public key could not be decoded")

	// ErrInvalidRequest means the request body is malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrStorage wraps every persistence failure.
	ErrStorage = errors.New("storage failure")
)

// storageError marks err as a persistence failure while keeping it inspectable.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// Kind classifies an error returned by this package.
type Kind int

const (
	KindUnknown Kind = iota
	KindSignatureInvalid
	KindChallengeInvalid
	KindUnknownUser
	KindUserExists
	KindInsufficientPrivilege
	KindKeyDecode
	KindInvalidRequest
	KindStorage
)

// Kinds lists every Kind, in declaration order.
var Kinds = []Kind{
	KindUnknown,
	KindSignatureInvalid,
	KindChallengeInvalid,
	KindUnknownUser,
	KindUserExists,
	KindInsufficientPrivilege,
	KindKeyDecode,
	KindInvalidRequest,
	KindStorage,
}

func (k Kind) String() string {
	switch k {
	case KindSignatureInvalid:
		return "signature_invalid"
	case KindChallengeInvalid:
		return "challenge_invalid"
	case KindUnknownUser:
		return "unknown_user"
	case KindUserExists:
		return "user_exists"
	case KindInsufficientPrivilege:
		return "insufficient_privilege"
	case KindKeyDecode:
		return "key_decode"
	case KindInvalidRequest:
		return "invalid_request"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// kindSentinels is checked in order; storage comes first so a wrapped driver
// error never masquerades as a client mistake.
var kindSentinels = []struct {
	err  error
	kind Kind
}{
	{ErrStorage, KindStorage},
	{ErrSignatureInvalid, KindSignatureInvalid},
	{ErrChallengeInvalid, KindChallengeInvalid},
	{ErrUnknownUser, KindUnknownUser},
	{ErrUserExists, KindUserExists},
	{ErrInsufficientPrivilege, KindInsufficientPrivilege},
	{ErrKeyDecode, KindKeyDecode},
	{ErrInvalidRequest, KindInvalidRequest},
}

// KindOf classifies err. Nil and unrecognised errors are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, s := range kindSentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindUnknown
}
