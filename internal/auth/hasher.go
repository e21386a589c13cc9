// Package auth implements password hashing and stateless signed session
// tokens. Both are pure computations with no shared mutable state.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes   = 16
	digestBytes = 32
	// pbkdf2Iterations trades login latency for brute-force cost.
	pbkdf2Iterations = 100_000
)

// NewSalt returns a fresh hex-encoded random salt. A new salt is derived on
// every registration and every password change, never reused.
func NewSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashPassword derives a hex-encoded digest from password and salt.
// Deterministic: the same inputs always produce the same digest.
func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, digestBytes, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPassword recomputes the digest with the stored salt and compares in
// constant time. A mismatch returns false, never an error.
func VerifyPassword(password, salt, digest string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
