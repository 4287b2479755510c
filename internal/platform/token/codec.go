// Package token provides generation and verification of opaque single-use
// secrets (email verification, password reset). Only the SHA-256 digest of a
// secret is ever persisted; the plaintext goes out in the emailed link.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// secretLen is the number of random bytes per secret (256 bits of entropy).
const secretLen = 32

// GenerateSecret returns a new cryptographically random secret as a hex string.
func GenerateSecret() (string, error) {
	buf := make([]byte, secretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash returns the hex-encoded SHA-256 digest of a secret.
// Deterministic so that a presented secret can be matched against the stored
// digest by equality. Brute-force resistance comes from the secret's entropy,
// not from the hash, so a fast hash is fine here (unlike passwords).
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the presented secret matches the stored digest.
// Comparison is constant-time.
func Verify(presented, storedDigest string) bool {
	digest := Hash(presented)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedDigest)) == 1
}
