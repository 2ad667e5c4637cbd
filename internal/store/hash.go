package store

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes passwords for storage and verifies login attempts. Two
// schemes exist: bcrypt is the default for new deployments, while sha256
// reproduces the original system's unsalted digest for databases that
// already hold such hashes. The legacy scheme is a documented weakness kept
// for compatibility, not a recommendation.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// NewHasher selects a hashing scheme by name.
func NewHasher(scheme string, bcryptCost int) (Hasher, error) {
	switch scheme {
	case "bcrypt":
		return BcryptHasher{Cost: bcryptCost}, nil
	case "sha256":
		return SHA256Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// BcryptHasher stores salted bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

// Hash returns the bcrypt hash of the password using the configured cost.
func (h BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify safely compares a bcrypt hash and a plain password.
func (h BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SHA256Hasher is the legacy deterministic scheme: the unsalted SHA-256 hex
// digest of the password. Same password, same digest, always.
type SHA256Hasher struct{}

// Hash returns the SHA-256 hex digest of the password.
func (SHA256Hasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the digest and compares in constant time.
func (SHA256Hasher) Verify(hash, password string) bool {
	sum := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(hash)) == 1
}
