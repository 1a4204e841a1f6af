// Package secret seals short strings (the API credential) before they are
// written to the key-value namespace.
//
// Sealed values look like
//
//	sealed:v1:<base64(nonce || secretbox ciphertext)>
//
// The 32-byte box key is derived from a passphrase with HKDF-SHA256.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPrefix = "sealed:v1:"
	nonceSize    = 24
	keySize      = 32
)

var (
	// ErrOpen is returned when a sealed value cannot be authenticated with
	// the configured key (wrong passphrase or tampered data).
	ErrOpen = errors.New("secret: cannot open sealed value")
	// ErrNoKey is returned when a sealed value is read by a Sealer that has
	// no passphrase configured.
	ErrNoKey = errors.New("secret: sealed value but no passphrase configured")
)

// Sealer seals and opens values. A Sealer with no passphrase passes values
// through unchanged.
type Sealer struct {
	key  *[keySize]byte
	rand io.Reader
}

// NewSealer derives the box key from passphrase. An empty passphrase
// returns a pass-through Sealer.
func NewSealer(passphrase string) (*Sealer, error) {
	s := &Sealer{rand: rand.Reader}
	if passphrase == "" {
		return s, nil
	}

	var key [keySize]byte
	kdf := hkdf.New(sha256.New, []byte(passphrase), nil, []byte("dailycode credential"))
	if _, err := io.ReadFull(kdf, key[:]); err != nil {
		return nil, fmt.Errorf("secret: deriving key: %w", err)
	}
	s.key = &key
	return s, nil
}

// Enabled reports whether values are actually encrypted.
func (s *Sealer) Enabled() bool {
	return s.key != nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if s.key == nil {
		return plaintext, nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(s.rand, nonce[:]); err != nil {
		return "", fmt.Errorf("secret: reading nonce: %w", err)
	}

	// secretbox.Seal appends the ciphertext to its first argument, so the
	// output is nonce followed by the box.
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, s.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as-is,
// which keeps credentials stored before sealing was enabled readable.
func (s *Sealer) Open(value string) (string, error) {
	encoded, ok := strings.CutPrefix(value, sealedPrefix)
	if !ok {
		return value, nil
	}
	if s.key == nil {
		return "", ErrNoKey
	}

	box, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrOpen
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])

	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, s.key)
	if !ok {
		return "", ErrOpen
	}
	return string(plain), nil
}
