package credentials

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

// Hasher hashes and verifies stored secrets.
type Hasher interface {
	// Hash returns a salted hash; two calls with the same input differ.
	Hash(secret string) (string, error)

	// Verify reports whether secret matches hash. A mismatch is (false, nil);
	// an error means the comparison itself could not be carried out.
	Verify(secret, hash string) (bool, error)
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher falls back to bcrypt.DefaultCost for out-of-range costs.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("credentials: hash: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(secret, hash string) (bool, error) {
	if len(secret) > MaxPasswordLength {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("credentials: verify: %w", err)
	}
}
