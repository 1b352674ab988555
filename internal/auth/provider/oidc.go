package provider

import (
	"context"
	"errors"
	"fmt"

	"blog-service/internal/auth"
	"blog-service/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDC is the shared OpenID Connect implementation behind concrete
// providers. A nil OAuthConfig limits it to ID token verification.
type OIDC struct {
	ProviderName string
	OAuthConfig  *oauth2.Config
	Verifier     *oidc.IDTokenVerifier
}

func (p *OIDC) Name() string {
	return p.ProviderName
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *OIDC) AuthCodeURL(state string, codeChallenge string) (string, error) {
	if p.OAuthConfig == nil {
		return "", ErrCodeFlowUnsupported
	}
	return p.OAuthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

func (p *OIDC) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Identity, error) {

	if p.OAuthConfig == nil {
		return nil, ErrCodeFlowUnsupported
	}

	token, err := p.OAuthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", p.ProviderName, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%s did not return id_token", p.ProviderName)
	}

	return p.VerifyIDToken(ctx, rawIDToken)
}

// VerifyIDToken checks signature, issuer, audience and expiry before any
// claim is read.
func (p *OIDC) VerifyIDToken(ctx context.Context, rawIDToken string) (*auth.Identity, error) {
	idToken, err := p.Verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s id_token verification failed: %w", p.ProviderName, err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s id_token claims parse failed: %w", p.ProviderName, err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New(p.ProviderName + " id_token missing required claims")
	}

	logger.Debug("oidc id_token verified", map[string]any{
		"provider":       p.ProviderName,
		"issuer":         idToken.Issuer,
		"email_verified": claims.EmailVerified,
		"expiry_unix":    idToken.Expiry.Unix(),
	})

	return &auth.Identity{
		Provider:       p.ProviderName,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		GivenName:      claims.GivenName,
		FamilyName:     claims.FamilyName,
	}, nil
}

var _ OAuthProvider = (*OIDC)(nil)
