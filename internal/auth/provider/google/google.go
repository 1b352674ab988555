package google

import (
	"context"
	"errors"
	"fmt"

	"blog-service/internal/auth/provider"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	providerName = "google"
	issuerURL    = "https://accounts.google.com"
)

// New initializes the Google provider via OIDC discovery. ID token
// verification only needs the client id; the authorization code flow is
// enabled when both clientSecret and redirectURL are set.
func New(
	ctx context.Context,
	clientID string,
	clientSecret string,
	redirectURL string,
) (*provider.OIDC, error) {

	if clientID == "" {
		return nil, errors.New("google oauth config missing client id")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	p := &provider.OIDC{
		ProviderName: providerName,
		Verifier: oidcProvider.Verifier(&oidc.Config{
			ClientID: clientID,
		}),
	}

	if clientSecret != "" && redirectURL != "" {
		p.OAuthConfig = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     oidcProvider.Endpoint(),
			Scopes: []string{
				oidc.ScopeOpenID,
				"profile",
				"email",
			},
		}
	}

	return p, nil
}
