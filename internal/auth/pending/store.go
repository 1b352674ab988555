// Package pending keeps OAuth authorizations that were started but not yet
// completed, keyed by their state value.
package pending

import (
	"context"
	"errors"
	"time"
)

// TTL bounds how long a user may spend at the provider.
const TTL = 5 * time.Minute

var ErrNotFound = errors.New("pending: authorization not found or expired")

// Authorization is an in-flight authorization code flow.
type Authorization struct {
	State        string    `json:"-"`
	Provider     string    `json:"provider"`
	CodeVerifier string    `json:"code_verifier"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Store holds pending authorizations. Take is one-shot: a state value can
// complete at most one flow.
type Store interface {
	Put(ctx context.Context, a Authorization) error
	Take(ctx context.Context, state string) (*Authorization, error)
}

func validate(a Authorization) (time.Duration, error) {
	if a.State == "" || a.Provider == "" || a.CodeVerifier == "" {
		return 0, errors.New("pending: missing state, provider or code verifier")
	}
	ttl := time.Until(a.ExpiresAt)
	if ttl <= 0 {
		return 0, errors.New("pending: expires_at must be in the future")
	}
	return ttl, nil
}
