package random

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// Random provides identifier and secret generation that can be mocked for testing
type Random interface {
	// NewID returns a fresh uuid string
	NewID() string

	// Secret returns n random bytes encoded as unpadded base64url
	Secret(n int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// NewID returns a random (version 4) uuid
func (r *CryptoRandom) NewID() string {
	return uuid.NewString()
}

// Secret returns n cryptographically random bytes, base64url encoded
func (r *CryptoRandom) Secret(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
