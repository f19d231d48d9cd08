// Package cryptox implements the archive crypto engine: argon2id password
// key derivation and AES-256-GCM authenticated encryption. The password is
// never persisted; salt and nonce travel in the archive header, where they
// are not secret.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// argon2id parameters: 1 pass over 64 MiB with 4 lanes. Deliberately
	// slow so brute-forcing a weak password stays expensive.
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	keyLen       = 32

	// SaltSize is the per-backup random salt length.
	SaltSize = 16
	// NonceSize is the AES-GCM nonce length. A nonce is generated fresh for
	// every encryption and never reused under a given key.
	NonceSize = 12
)

// ErrAuthenticationFailed means AEAD authentication failed: wrong password
// or tampered ciphertext. It is deliberately distinct from a checksum
// mismatch so callers can re-prompt for the password instead of declaring
// the backup unusable.
var ErrAuthenticationFailed = errors.New("authentication failed")

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	return randomBytes(SaltSize)
}

// NewNonce returns a fresh random nonce.
func NewNonce() ([]byte, error) {
	return randomBytes(NonceSize)
}

// Encrypt seals plaintext under the key derived for this archive. The nonce
// must be unique per key; use NewNonce.
func Encrypt(plaintext, key, nonce []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt opens ciphertext. A wrong key, a malformed nonce, or any modified
// ciphertext byte fails the authentication check and returns
// ErrAuthenticationFailed.
func Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	// Open panics on a wrong-size nonce; a corrupted header field must fail
	// like any other tamper.
	if len(nonce) != aead.NonceSize() {
		return nil, ErrAuthenticationFailed
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

func randomBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
