// ABOUTME: Self-signed certificates used to establish an account
// ABOUTME: A valid certificate proves possession of the private key for its public key

package auth

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength bounds user names, in bytes.
const MaxNameLength = 64

// Certificate is a registration claim. It becomes an identity only after its
// signature verifies and the account insert succeeds.
type Certificate struct {
	Name      string    `json:"name"`
	Contact   *string   `json:"contact,omitempty"`
	PublicKey string    `json:"pubkey"`
	Created   time.Time `json:"created"`
}

// VerifyCertificate checks that the certificate is signed by the key it
// carries. It proves key possession only; it says nothing about the name.
func VerifyCertificate(signed *Signed[Certificate]) (*Certificate, error) {
	cert := signed.Data

	if err := ValidateName(cert.Name); err != nil {
		return nil, err
	}

	pub, err := ParsePublicKey(cert.PublicKey)
	if err != nil {
		return nil, err
	}

	msg, err := signed.Message()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if err := VerifySignature(pub, msg, signed.Signature); err != nil {
		return nil, err
	}

	return &cert, nil
}

// ValidateName rejects names that are empty, too long or contain control
// characters.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d bytes", ErrInvalidRequest, MaxNameLength)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidRequest)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: name contains control characters", ErrInvalidRequest)
		}
	}
	return nil
}
