// Package providertest mints ID tokens for an in-process OIDC issuer so
// federated flows can be tested without network discovery.
package providertest

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"blog-service/internal/auth/provider"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

const (
	IssuerURL = "https://issuer.test"
	ClientID  = "blog-client"
)

// Issuer signs ID tokens with a throwaway RSA key and exposes a provider
// that trusts that key.
type Issuer struct {
	t   testing.TB
	key *rsa.PrivateKey

	Provider *provider.OIDC
}

func New(t testing.TB, name string) *Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return &Issuer{
		t:   t,
		key: key,
		Provider: &provider.OIDC{
			ProviderName: name,
			Verifier:     oidc.NewVerifier(IssuerURL, keySet, &oidc.Config{ClientID: ClientID}),
		},
	}
}

// Claims returns a valid claim set for subject; callers adjust fields
// before minting.
func Claims(subject, email string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            IssuerURL,
		"aud":            ClientID,
		"sub":            subject,
		"email":          email,
		"email_verified": true,
		"given_name":     "Ada",
		"family_name":    "Lovelace",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

// Mint signs claims with RS256.
func (i *Issuer) Mint(claims jwt.MapClaims) string {
	i.t.Helper()
	return i.mint(claims, i.key)
}

// MintWithForeignKey signs claims with a key the provider does not trust.
func (i *Issuer) MintWithForeignKey(claims jwt.MapClaims) string {
	i.t.Helper()
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		i.t.Fatalf("generate rsa key: %v", err)
	}
	return i.mint(claims, other)
}

func (i *Issuer) mint(claims jwt.MapClaims, key *rsa.PrivateKey) string {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		i.t.Fatalf("sign id token: %v", err)
	}
	return raw
}
