package provider_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"blog-service/internal/auth/provider"
	"blog-service/internal/auth/provider/providertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestVerifyIDToken(t *testing.T) {
	iss := providertest.New(t, "google")
	raw := iss.Mint(providertest.Claims("g-123", "ada@example.com"))

	id, err := iss.Provider.VerifyIDToken(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "google", id.Provider)
	assert.Equal(t, "g-123", id.ProviderUserID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "Ada", id.GivenName)
	assert.Equal(t, "Lovelace", id.FamilyName)
}

func TestVerifyIDToken_Rejects(t *testing.T) {
	iss := providertest.New(t, "google")

	tests := []struct {
		name string
		raw  func() string
	}{
		{"foreign key", func() string {
			return iss.MintWithForeignKey(providertest.Claims("g-1", "a@x.com"))
		}},
		{"wrong audience", func() string {
			c := providertest.Claims("g-1", "a@x.com")
			c["aud"] = "someone-else"
			return iss.Mint(c)
		}},
		{"wrong issuer", func() string {
			c := providertest.Claims("g-1", "a@x.com")
			c["iss"] = "https://evil.test"
			return iss.Mint(c)
		}},
		{"expired", func() string {
			c := providertest.Claims("g-1", "a@x.com")
			c["exp"] = time.Now().Add(-time.Hour).Unix()
			return iss.Mint(c)
		}},
		{"missing email", func() string {
			c := providertest.Claims("g-1", "")
			delete(c, "email")
			return iss.Mint(c)
		}},
		{"garbage", func() string { return "not.a.token" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := iss.Provider.VerifyIDToken(context.Background(), tt.raw())
			assert.Error(t, err)
			assert.Nil(t, id)
		})
	}
}

func TestCodeFlowUnsupportedWithoutOAuthConfig(t *testing.T) {
	iss := providertest.New(t, "google")

	_, err := iss.Provider.AuthCodeURL("state", "challenge")
	assert.True(t, errors.Is(err, provider.ErrCodeFlowUnsupported))

	_, err = iss.Provider.ExchangeCode(context.Background(), "code", "verifier")
	assert.True(t, errors.Is(err, provider.ErrCodeFlowUnsupported))
}

func TestRegistry(t *testing.T) {
	g := providertest.New(t, "google").Provider
	k := providertest.New(t, "keycloak").Provider
	reg := provider.NewRegistry(g, k)

	got, err := reg.Get("keycloak")
	require.NoError(t, err)
	assert.Equal(t, "keycloak", got.Name())

	_, err = reg.Get("github")
	assert.True(t, errors.Is(err, provider.ErrUnknownProvider))
}

func TestAuthCodeURL_CarriesPKCE(t *testing.T) {
	p := providertest.New(t, "keycloak").Provider
	p.OAuthConfig = &oauth2.Config{
		ClientID:    providertest.ClientID,
		RedirectURL: "http://localhost:8080/oauth/callback/keycloak",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://sso.test/auth", TokenURL: "https://sso.test/token"},
	}

	raw, err := p.AuthCodeURL("st4te", "ch4llenge")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "st4te", q.Get("state"))
	assert.Equal(t, "ch4llenge", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, providertest.ClientID, q.Get("client_id"))
}
