// ABOUTME: Signed wrapper pairing a JSON payload with a detached signature
// ABOUTME: Keeps the received data bytes so verification never depends on re-encoding

package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
)

// Signed is the wire form {"data": <T>, "signature": "<base64>"}.
type Signed[T any] struct {
	Data      T
	Signature []byte

	// raw is the data member exactly as received.
	raw json.RawMessage
}

type signedWire struct {
	Data      json.RawMessage `json:"data"`
	Signature []byte          `json:"signature"`
}

func (s *Signed[T]) UnmarshalJSON(b []byte) error {
	var w signedWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if len(w.Data) == 0 {
		return errors.New("signed value is missing data")
	}
	if len(w.Signature) == 0 {
		return errors.New("signed value is missing signature")
	}

	var data T
	if err := json.Unmarshal(w.Data, &data); err != nil {
		return fmt.Errorf("decoding signed data: %w", err)
	}

	s.Data = data
	s.Signature = w.Signature
	s.raw = append(json.RawMessage(nil), w.Data...)
	return nil
}

func (s Signed[T]) MarshalJSON() ([]byte, error) {
	data := s.raw
	if data == nil {
		var err error
		if data, err = json.Marshal(s.Data); err != nil {
			return nil, err
		}
	}
	return json.Marshal(signedWire{Data: data, Signature: s.Signature})
}

// Message returns the bytes the signature covers: the canonical form of the
// received data, or of Data when the value was built locally.
func (s *Signed[T]) Message() ([]byte, error) {
	if s.raw != nil {
		return Canonicalize(s.raw)
	}
	return CanonicalMarshal(s.Data)
}

// Sign canonicalizes data and signs it with signer.
func Sign[T any](signer crypto.Signer, data T) (*Signed[T], error) {
	msg, err := CanonicalMarshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding data: %w", err)
	}
	sig, err := SignMessage(signer, msg)
	if err != nil {
		return nil, err
	}
	return &Signed[T]{Data: data, Signature: sig, raw: msg}, nil
}

// SignMessage signs msg with the scheme VerifySignature expects for the
// signer's key type.
func SignMessage(signer crypto.Signer, msg []byte) ([]byte, error) {
	switch signer.Public().(type) {
	case ed25519.PublicKey:
		return signer.Sign(rand.Reader, msg, crypto.Hash(0))
	case *rsa.PublicKey, *ecdsa.PublicKey:
		digest := sha256.Sum256(msg)
		return signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	default:
		return nil, fmt.Errorf("unsupported signer key type %T", signer.Public())
	}
}
