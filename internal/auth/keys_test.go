// ABOUTME: Tests for public key parsing and signature verification
// ABOUTME: Covers every supported encoding and scheme plus malformed input

package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestSignAndVerify_AllKeyTypes(t *testing.T) {
	signers := map[string]crypto.Signer{
		"ed25519": newEd25519Signer(t),
		"ecdsa":   newECDSASigner(t),
		"rsa":     newRSASigner(t),
	}

	for name, signer := range signers {
		t.Run(name, func(t *testing.T) {
			pub, err := ParsePublicKey(pemPublicKey(t, signer.Public()))
			require.NoError(t, err)

			msg := []byte(`{"hello":"world"}`)
			sig, err := SignMessage(signer, msg)
			require.NoError(t, err)

			assert.NoError(t, VerifySignature(pub, msg, sig))
			assert.ErrorIs(t, VerifySignature(pub, []byte(`{"hello":"World"}`), sig), ErrSignatureInvalid)
		})
	}
}

func TestParsePublicKey_PKCS1(t *testing.T) {
	signer := newRSASigner(t)
	der := x509.MarshalPKCS1PublicKey(signer.Public().(*rsa.PublicKey))
	text := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: der}))

	pub, err := ParsePublicKey(text)
	require.NoError(t, err)
	assert.IsType(t, &rsa.PublicKey{}, pub)
}

func TestParsePublicKey_AuthorizedKey(t *testing.T) {
	signer := newEd25519Signer(t)
	sshPub, err := ssh.NewPublicKey(signer.Public())
	require.NoError(t, err)
	line := string(ssh.MarshalAuthorizedKey(sshPub))

	// MarshalAuthorizedKey ends with a newline; the comment goes on the key line.
	pub, err := ParsePublicKey(strings.TrimSpace(line) + " alice@laptop")
	require.NoError(t, err)

	msg := []byte(`"alice"`)
	sig, err := SignMessage(signer, msg)
	require.NoError(t, err)
	assert.NoError(t, VerifySignature(pub, msg, sig))
}

func TestParsePublicKey_Invalid(t *testing.T) {
	p224, err := ecdsa.GenerateKey(elliptic.P224(), rand.Reader)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":            "",
		"garbage":          "not a key",
		"bad pem body":     "-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----\n",
		"wrong pem type":   "-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n",
		"bad ssh base64":   "ssh-ed25519 !!!!",
		"unsupported p224": pemPublicKey(t, p224.Public()),
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePublicKey(text)
			assert.ErrorIs(t, err, ErrKeyDecode)
		})
	}
}

func TestVerifySignature_WrongKey(t *testing.T) {
	a := newEd25519Signer(t)
	b := newEd25519Signer(t)

	msg := []byte("payload")
	sig, err := SignMessage(a, msg)
	require.NoError(t, err)

	pubB, err := ParsePublicKey(pemPublicKey(t, b.Public()))
	require.NoError(t, err)
	assert.ErrorIs(t, VerifySignature(pubB, msg, sig), ErrSignatureInvalid)
}

func TestFingerprint(t *testing.T) {
	signer := newEd25519Signer(t)
	pub, err := ParsePublicKey(pemPublicKey(t, signer.Public()))
	require.NoError(t, err)

	fp, err := Fingerprint(pub)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fp, "SHA256:"), "fingerprint %q", fp)

	// The same key in a different encoding has the same fingerprint.
	sshPub, err := ssh.NewPublicKey(signer.Public())
	require.NoError(t, err)
	assert.Equal(t, ssh.FingerprintSHA256(sshPub), fp)

	assert.Equal(t, "invalid", fingerprintOf("nope"))
}
