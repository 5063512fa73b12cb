package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const tempTokenBytes = 20

// TemporaryToken is an opaque one-time secret for email verification and
// password reset. Unhashed is exposed to the requester exactly once; only
// Hashed and ExpiresAt are persisted.
type TemporaryToken struct {
	Unhashed  string
	Hashed    string
	ExpiresAt time.Time
}

// NewTemporaryToken generates a high-entropy one-time token valid for ttl.
func NewTemporaryToken(ttl time.Duration) (*TemporaryToken, error) {
	buf := make([]byte, tempTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	unhashed := hex.EncodeToString(buf)
	return &TemporaryToken{
		Unhashed:  unhashed,
		Hashed:    HashTemporaryToken(unhashed),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// HashTemporaryToken maps a presented secret to its stored form.
func HashTemporaryToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
