// Package token signs and verifies bearer tokens.
//
// Access and refresh tokens are signed with different algorithms (and
// optionally different secrets). Verification only accepts the algorithm of
// the role being verified, so a refresh token can never be replayed as an
// access token and vice versa.
package token

import (
	"errors"
	"fmt"
	"time"

	"blog-service/internal/apperr"
	"blog-service/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("token: invalid")
	ErrExpiredToken = errors.New("token: expired")
)

// Role selects the signing algorithm and secret.
type Role int

const (
	Access Role = iota
	Refresh
)

func (r Role) String() string {
	switch r {
	case Access:
		return "access"
	case Refresh:
		return "refresh"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

type roleKey struct {
	method jwt.SigningMethod
	secret []byte
}

// Codec is safe for concurrent use; it holds only immutable configuration.
type Codec struct {
	access   roleKey
	refresh  roleKey
	issuer   string
	audience string
}

// NewCodec fails with a Misconfiguration when a secret, the issuer or the
// audience is missing.
func NewCodec(cfg config.JWT) (*Codec, error) {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	switch {
	case cfg.Secret == "":
		return nil, apperr.Misconfiguration("JWT_SECRET", errors.New("empty"))
	case cfg.Issuer == "":
		return nil, apperr.Misconfiguration("JWT_TOKEN_ISSUER", errors.New("empty"))
	case cfg.Audience == "":
		return nil, apperr.Misconfiguration("JWT_TOKEN_AUDIENCE", errors.New("empty"))
	}

	return &Codec{
		access:   roleKey{method: jwt.SigningMethodHS256, secret: []byte(cfg.Secret)},
		refresh:  roleKey{method: jwt.SigningMethodHS512, secret: []byte(refreshSecret)},
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}, nil
}

func (c *Codec) key(role Role) (roleKey, error) {
	switch role {
	case Access:
		return c.access, nil
	case Refresh:
		return c.refresh, nil
	default:
		return roleKey{}, fmt.Errorf("token: unknown role %s", role)
	}
}

// Sign stamps issuer, audience, issued-at, expiry and a unique id onto
// claims and signs them for role. A ttl <= 0 yields an already expired token.
func (c *Codec) Sign(claims *Claims, role Role, ttl time.Duration) (string, error) {
	k, err := c.key(role)
	if err != nil {
		return "", err
	}

	now := time.Now()
	stamped := *claims
	stamped.Issuer = c.issuer
	stamped.Audience = jwt.ClaimStrings{c.audience}
	stamped.IssuedAt = jwt.NewNumericDate(now)
	stamped.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	stamped.ID = uuid.NewString()

	signed, err := jwt.NewWithClaims(k.method, &stamped).SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign %s: %w", role, err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry for role.
// iat is informational only, so clock skew between instances cannot reject
// a freshly issued token; exp is enforced without leeway.
// Expired tokens fail with ErrExpiredToken, everything else with
// ErrInvalidToken. Claims are only returned from a fully verified token.
func (c *Codec) Verify(raw string, role Role) (*Claims, error) {
	k, err := c.key(role)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{k.method.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	_, err = parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != k.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return k.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
