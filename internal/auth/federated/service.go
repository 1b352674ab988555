// Package federated signs users in with an identity vouched for by an
// external OpenID Connect provider.
package federated

import (
	"context"

	"blog-service/internal/apperr"
	"blog-service/internal/auth"
	"blog-service/internal/auth/provider"
	"blog-service/internal/auth/resolver"
	"blog-service/internal/auth/token"
	"blog-service/internal/logger"
	"blog-service/internal/user"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const invalidFederatedToken = "Invalid identity token"

var tracer = otel.Tracer("blog-service/internal/auth/federated")

// TokenIssuer issues the token pair returned after a federated sign-in.
type TokenIssuer interface {
	IssueTokenPair(ctx context.Context, u *user.User) (token.Pair, error)
}

// Providers looks up a configured provider by name.
type Providers interface {
	Get(name string) (provider.OAuthProvider, error)
}

type Service struct {
	providers Providers
	resolver  resolver.Resolver
	issuer    TokenIssuer
}

func NewService(
	providers Providers,
	resolver resolver.Resolver,
	issuer TokenIssuer,
) *Service {
	return &Service{
		providers: providers,
		resolver:  resolver,
		issuer:    issuer,
	}
}

// SignIn verifies an ID token the client obtained from providerName,
// finds or creates the local user and issues a token pair.
func (s *Service) SignIn(ctx context.Context, providerName, rawIDToken string) (token.Pair, error) {
	return s.run(ctx, providerName, "id_token", func(ctx context.Context, p provider.OAuthProvider) (*auth.Identity, error) {
		return p.VerifyIDToken(ctx, rawIDToken)
	})
}

// CompleteAuthCode finishes the authorization code flow for providerName.
func (s *Service) CompleteAuthCode(ctx context.Context, providerName, code, codeVerifier string) (token.Pair, error) {
	return s.run(ctx, providerName, "code", func(ctx context.Context, p provider.OAuthProvider) (*auth.Identity, error) {
		return p.ExchangeCode(ctx, code, codeVerifier)
	})
}

// run normalizes every failure to Unauthorized; the cause is logged only.
func (s *Service) run(
	ctx context.Context,
	providerName string,
	method string,
	identify func(context.Context, provider.OAuthProvider) (*auth.Identity, error),
) (token.Pair, error) {

	ctx, span := tracer.Start(ctx, "auth.federated_sign_in")
	defer span.End()
	span.SetAttributes(
		attribute.String("auth.provider", providerName),
		attribute.String("auth.method", method),
	)

	fail := func(stage string, err error) (token.Pair, error) {
		span.SetStatus(codes.Error, stage)
		logger.Warn("federated sign-in failed", map[string]any{
			"provider": providerName,
			"stage":    stage,
			"error":    err.Error(),
		})
		return token.Pair{}, apperr.Unauthorized(invalidFederatedToken).WithCause(err)
	}

	// 1. Verify identity with the provider
	p, err := s.providers.Get(providerName)
	if err != nil {
		return fail("provider", err)
	}
	identity, err := identify(ctx, p)
	if err != nil {
		return fail("verify", err)
	}

	// 2. Find or create the local user
	u, err := s.resolver.Resolve(ctx, identity)
	if err != nil {
		return fail("resolve", err)
	}

	// 3. Issue tokens
	pair, err := s.issuer.IssueTokenPair(ctx, u)
	if err != nil {
		return fail("issue", err)
	}

	logger.Info("user signed in", map[string]any{"user_id": u.ID, "method": providerName})
	return pair, nil
}
