// Package auth implements passwordless public-key authentication for otango.
//
// # Flow
//
// A client holds a keypair generated out of band and never sends a secret:
//
//  1. Register: POST a Signed[Certificate]. The certificate carries the public
//     key that verifies its own signature, which proves possession of the
//     private key. The account is created with privilege None.
//  2. Challenge: POST a Signed[string] whose data is the user name, signed with
//     the registered key. The server returns a fresh 32-byte nonce (base64).
//  3. Request: wrap the payload in an Envelope {user, challenge, data}, sign it,
//     and submit it. Authenticate verifies the signature, consumes the
//     challenge, then checks privilege.
//
// A challenge is consumed at most once. Expired challenges are swept lazily on
// every consumption; there is no background timer.
//
// # Signatures
//
// The signed message is the canonical JSON of the data value: sorted keys, no
// insignificant whitespace, number literals preserved. Strings escape only
// '"', '\\' and characters below U+0020 (\b \f \n \r \t in short form, others
// as lowercase \u00xx); all other characters, including '<', '/' and
// U+2028/U+2029, are written as raw UTF-8. Input that is not valid UTF-8 is
// rejected. The server canonicalizes the bytes it received, so clients in any
// language can produce the same message.
//
// Supported keys are RSA (PKCS#1 v1.5, SHA-256), ECDSA P-256/P-384/P-521
// (ASN.1, SHA-256) and Ed25519, in PEM or OpenSSH authorized_keys form.
//
// # Errors
//
// Every failure wraps one of the sentinel errors below; KindOf classifies an
// error for the HTTP layer:
//
//	ErrSignatureInvalid, ErrChallengeInvalid, ErrUnknownUser, ErrKeyDecode
//	ErrInsufficientPrivilege, ErrUserExists, ErrInvalidRequest, ErrStorage
package auth
