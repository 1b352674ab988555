package keycloak

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"blog-service/internal/auth/provider"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const providerName = "keycloak"

// New initializes a Keycloak OIDC provider using discovery.
// issuer must be the realm issuer URL, e.g.
// http://keycloak:8080/realms/blog
//
// publicBaseURL replaces the scheme and host of the discovered
// authorization endpoint, for deployments where the browser reaches
// Keycloak on a different address than the service does.
func New(
	ctx context.Context,
	issuer string,
	clientID string,
	redirectURL string,
	publicBaseURL string,
) (*provider.OIDC, error) {

	if issuer == "" || clientID == "" || redirectURL == "" || publicBaseURL == "" {
		return nil, errors.New("keycloak oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init keycloak oidc provider: %w", err)
	}

	ep := oidcProvider.Endpoint()
	ep.AuthURL, err = rebase(ep.AuthURL, publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("keycloak public base url: %w", err)
	}

	return &provider.OIDC{
		ProviderName: providerName,
		Verifier: oidcProvider.Verifier(&oidc.Config{
			ClientID: clientID,
		}),
		OAuthConfig: &oauth2.Config{
			ClientID:    clientID,
			RedirectURL: redirectURL,
			Endpoint:    ep,
			Scopes: []string{
				oidc.ScopeOpenID,
				"email",
				"profile",
			},
		},
	}, nil
}

// rebase keeps the path of endpoint and takes scheme and host from base.
func rebase(endpoint, base string) (string, error) {
	e, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	b, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	if b.Scheme == "" || b.Host == "" {
		return "", fmt.Errorf("%q is not an absolute url", base)
	}
	e.Scheme = b.Scheme
	e.Host = b.Host
	return e.String(), nil
}
