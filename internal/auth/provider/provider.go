package provider

import (
	"context"
	"errors"

	"blog-service/internal/auth"
)

// ErrCodeFlowUnsupported is returned by providers configured for ID token
// verification only.
var ErrCodeFlowUnsupported = errors.New("provider: authorization code flow not configured")

// OAuthProvider defines the contract every external auth provider
// must implement. Implementations return identity facts only and
// must not perform user creation, linking, or session management.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google", "keycloak").
	Name() string

	// VerifyIDToken verifies a raw ID token obtained by the client and
	// returns the identity it asserts.
	VerifyIDToken(ctx context.Context, rawIDToken string) (*auth.Identity, error)

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) (string, error)

	// ExchangeCode exchanges the authorization code for provider credentials
	// and returns a normalized identity. No auth decisions are made here.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.Identity, error)
}
