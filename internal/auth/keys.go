// ABOUTME: Public key parsing and signature verification
// ABOUTME: Accepts PEM (PKIX, PKCS#1) and OpenSSH authorized_keys encodings

package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ParsePublicKey decodes key material. The result is *rsa.PublicKey,
// *ecdsa.PublicKey or ed25519.PublicKey. Failures wrap ErrKeyDecode.
func ParsePublicKey(text string) (crypto.PublicKey, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty key", ErrKeyDecode)
	}

	var (
		pub crypto.PublicKey
		err error
	)
	if strings.HasPrefix(text, "-----BEGIN") {
		pub, err = parsePEMKey(text)
	} else {
		pub, err = parseAuthorizedKey(text)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyDecode, err)
	}

	if err := checkKeyType(pub); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyDecode, err)
	}
	return pub, nil
}

func parsePEMKey(text string) (crypto.PublicKey, error) {
	block, rest := pem.Decode([]byte(text))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if len(strings.TrimSpace(string(rest))) != 0 {
		return nil, fmt.Errorf("unexpected data after PEM block")
	}

	switch block.Type {
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}
}

func parseAuthorizedKey(text string) (crypto.PublicKey, error) {
	pk, _, _, rest, err := ssh.ParseAuthorizedKey([]byte(text))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(rest))) != 0 {
		return nil, fmt.Errorf("expected a single authorized key")
	}
	ck, ok := pk.(ssh.CryptoPublicKey)
	if !ok {
		return nil, fmt.Errorf("unsupported key type %s", pk.Type())
	}
	return ck.CryptoPublicKey(), nil
}

func checkKeyType(pub crypto.PublicKey) error {
	switch k := pub.(type) {
	case *rsa.PublicKey, ed25519.PublicKey:
		return nil
	case *ecdsa.PublicKey:
		switch k.Curve {
		case elliptic.P256(), elliptic.P384(), elliptic.P521():
			return nil
		}
		return fmt.Errorf("unsupported curve %s", k.Curve.Params().Name)
	default:
		return fmt.Errorf("unsupported key type %T", pub)
	}
}

// VerifySignature checks sig over msg. A mismatch wraps ErrSignatureInvalid.
func VerifySignature(pub crypto.PublicKey, msg, sig []byte) error {
	digest := sha256.Sum256(msg)

	var ok bool
	switch k := pub.(type) {
	case *rsa.PublicKey:
		ok = rsa.VerifyPKCS1v15(k, crypto.SHA256, digest[:], sig) == nil
	case *ecdsa.PublicKey:
		ok = ecdsa.VerifyASN1(k, digest[:], sig)
	case ed25519.PublicKey:
		ok = ed25519.Verify(k, msg, sig)
	default:
		return fmt.Errorf("%w: unsupported key type %T", ErrKeyDecode, pub)
	}

	if !ok {
		return ErrSignatureInvalid
	}
	return nil
}

// Fingerprint returns the OpenSSH SHA256 fingerprint of pub.
func Fingerprint(pub crypto.PublicKey) (string, error) {
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("computing fingerprint: %w", err)
	}
	return ssh.FingerprintSHA256(sshPub), nil
}

// fingerprintOf is Fingerprint for logging; it never fails.
func fingerprintOf(text string) string {
	pub, err := ParsePublicKey(text)
	if err != nil {
		return "invalid"
	}
	fp, err := Fingerprint(pub)
	if err != nil {
		return "invalid"
	}
	return fp
}
