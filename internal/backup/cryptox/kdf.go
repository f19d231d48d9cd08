package cryptox

import "golang.org/x/crypto/argon2"

// DeriveKey derives a 256-bit AES key from a password and salt using
// argon2id. Same password and salt always yield the same key.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, keyLen)
}
