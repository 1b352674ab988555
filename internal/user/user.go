// Package user owns persisted identities. It has no dependency on auth:
// authentication flows depend on it, never the other way round.
package user

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound   = errors.New("user: not found")
	ErrEmailTaken = errors.New("user: email already registered")
)

// User is a persisted identity. PasswordHash is empty for accounts created
// through a federated provider.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	PasswordHash string `json:"-"`
}

// HasPassword reports whether the user can sign in locally.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// NewUser is the input for a local sign-up.
type NewUser struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
}

// FederatedProfile describes a user vouched for by an external provider.
type FederatedProfile struct {
	Provider  string
	Subject   string
	Email     string
	FirstName string
	LastName  string
}

// Store is the persistence contract the auth flows rely on.
type Store interface {
	// FindByID fails with ErrNotFound when the user does not exist.
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByEmail fails with ErrNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByFederatedID returns (nil, nil) when the external identifier is
	// unknown; absence is the expected new-user case.
	FindByFederatedID(ctx context.Context, provider, subject string) (*User, error)

	// Create inserts a local user, failing with ErrEmailTaken on conflict.
	Create(ctx context.Context, u NewUser) (*User, error)

	// CreateFederated inserts a password-less user bound to the external
	// identifier. When a concurrent call already bound the identifier the
	// existing user is returned instead of a duplicate.
	CreateFederated(ctx context.Context, p FederatedProfile) (*User, error)

	// LinkFederatedID binds an external identifier to an existing user.
	LinkFederatedID(ctx context.Context, userID int64, provider, subject string) error
}

// NormalizeEmail is applied to every email before it is stored or compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
