package calendar

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrNoKey is returned when no encryption key is configured.
var ErrNoKey = errors.New("calendar: token encryption key not configured")

// TokenBox encrypts OAuth tokens at rest with XChaCha20-Poly1305. The nonce
// is stored as a prefix of the ciphertext.
type TokenBox struct {
	aead cipher.AEAD
}

// NewTokenBox builds a box from a 32 byte key.
func NewTokenBox(key []byte) (*TokenBox, error) {
	if len(key) == 0 {
		return nil, ErrNoKey
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("calendar: token key: %w", err)
	}
	return &TokenBox{aead: aead}, nil
}

// NewEphemeralTokenBox uses a random key. Tokens sealed with it do not
// survive a restart.
func NewEphemeralTokenBox() (*TokenBox, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return NewTokenBox(key)
}

// Seal encrypts plaintext. associated binds the ciphertext to its owner so
// a row copied to another staff member does not decrypt.
func (b *TokenBox) Seal(plaintext, associated string) ([]byte, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return b.aead.Seal(nonce, nonce, []byte(plaintext), []byte(associated)), nil
}

// Open decrypts a value produced by Seal.
func (b *TokenBox) Open(sealed []byte, associated string) (string, error) {
	n := b.aead.NonceSize()
	if len(sealed) < n {
		return "", errors.New("calendar: sealed token too short")
	}
	plain, err := b.aead.Open(nil, sealed[:n], sealed[n:], []byte(associated))
	if err != nil {
		return "", fmt.Errorf("calendar: open token: %w", err)
	}
	return string(plain), nil
}
