// Package refresh exchanges a refresh token for a new access token.
package refresh

import (
	"context"
	"errors"

	"blog-service/internal/apperr"
	"blog-service/internal/auth/token"
	"blog-service/internal/logger"
	"blog-service/internal/user"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const invalidRefreshToken = "Invalid refresh token"

var tracer = otel.Tracer("blog-service/internal/auth/refresh")

// Verifier checks a token for a given role.
type Verifier interface {
	Verify(raw string, role token.Role) (*token.Claims, error)
}

// AccessIssuer issues access tokens.
type AccessIssuer interface {
	IssueAccessToken(u *user.User) (string, error)
}

// Result is the refresh response. Refresh tokens are not rotated.
type Result struct {
	AccessToken string `json:"accessToken"`
}

type Service struct {
	verifier Verifier
	users    user.Store
	issuer   AccessIssuer
}

func NewService(verifier Verifier, users user.Store, issuer AccessIssuer) *Service {
	return &Service{verifier: verifier, users: users, issuer: issuer}
}

// Refresh verifies raw as a refresh token and issues a fresh access token
// for its subject. Bad, expired, wrong-role and orphaned tokens all fail
// with the same Unauthorized.
func (s *Service) Refresh(ctx context.Context, raw string) (Result, error) {
	ctx, span := tracer.Start(ctx, "auth.refresh")
	defer span.End()

	res, err := s.refresh(ctx, raw)
	if err != nil {
		if appErr, ok := apperr.As(err); ok {
			span.SetStatus(codes.Error, string(appErr.Code))
		}
		return Result{}, err
	}
	return res, nil
}

func (s *Service) refresh(ctx context.Context, raw string) (Result, error) {
	// 1. Verify token
	claims, err := s.verifier.Verify(raw, token.Refresh)
	if err != nil {
		logger.Debug("refresh token rejected", map[string]any{"reason": reason(err)})
		return Result{}, apperr.Unauthorized(invalidRefreshToken)
	}
	id, err := claims.UserID()
	if err != nil {
		return Result{}, apperr.Unauthorized(invalidRefreshToken)
	}

	// 2. Resolve user
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return Result{}, apperr.Unauthorized(invalidRefreshToken)
	}
	if err != nil {
		logger.Error("refresh lookup failed", map[string]any{"user_id": id, "error": err.Error()})
		return Result{}, apperr.Transient("find user", err)
	}

	// 3. Issue access token
	access, err := s.issuer.IssueAccessToken(u)
	if err != nil {
		return Result{}, apperr.Internal(err)
	}
	return Result{AccessToken: access}, nil
}

func reason(err error) string {
	if errors.Is(err, token.ErrExpiredToken) {
		return "expired"
	}
	return "invalid"
}
