package credentials

import (
	"context"
	"errors"
	"sync"

	"blog-service/internal/apperr"
	"blog-service/internal/auth/token"
	"blog-service/internal/logger"
	"blog-service/internal/user"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// incorrectCredentials is shared by the unknown-email and wrong-password
// paths so the two cannot be told apart.
const incorrectCredentials = "Incorrect password"

var tracer = otel.Tracer("blog-service/internal/auth/credentials")

// TokenIssuer issues the token pair returned by a successful sign-in.
type TokenIssuer interface {
	IssueTokenPair(ctx context.Context, u *user.User) (token.Pair, error)
}

// Service verifies local credentials and registers local users.
type Service struct {
	users  user.Store
	hasher Hasher
	issuer TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

func NewService(users user.Store, hasher Hasher, issuer TokenIssuer) *Service {
	return &Service{users: users, hasher: hasher, issuer: issuer}
}

// SignIn looks the user up by email, verifies the password and issues a
// token pair. Unknown emails, password-less accounts and wrong passwords all
// fail with the same Unauthorized; infrastructure failures are Transient.
func (s *Service) SignIn(ctx context.Context, c Credentials) (token.Pair, error) {
	ctx, span := tracer.Start(ctx, "auth.sign_in")
	defer span.End()

	pair, err := s.signIn(ctx, c)
	if err != nil {
		if appErr, ok := apperr.As(err); ok {
			span.SetStatus(codes.Error, string(appErr.Code))
		}
		return token.Pair{}, err
	}
	return pair, nil
}

func (s *Service) signIn(ctx context.Context, c Credentials) (token.Pair, error) {
	// 1. Find user
	u, err := s.users.FindByEmail(ctx, c.Email)
	if errors.Is(err, user.ErrNotFound) {
		s.burnVerify(c.Password)
		return token.Pair{}, apperr.Unauthorized(incorrectCredentials)
	}
	if err != nil {
		logger.Error("sign-in lookup failed", map[string]any{"error": err.Error()})
		return token.Pair{}, apperr.Transient("find user", err)
	}

	if !u.HasPassword() {
		s.burnVerify(c.Password)
		return token.Pair{}, apperr.Unauthorized(incorrectCredentials)
	}

	// 2. Verify password
	ok, err := s.hasher.Verify(c.Password, u.PasswordHash)
	if err != nil {
		logger.Error("password verification failed", map[string]any{
			"user_id": u.ID,
			"error":   err.Error(),
		})
		return token.Pair{}, apperr.Transient("verify password", err)
	}
	if !ok {
		return token.Pair{}, apperr.Unauthorized(incorrectCredentials)
	}

	// 3. Issue tokens
	pair, err := s.issuer.IssueTokenPair(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return token.Pair{}, apperr.Transient("issue tokens", err)
		}
		return token.Pair{}, apperr.Internal(err)
	}

	logger.Info("user signed in", map[string]any{"user_id": u.ID, "method": "password"})
	return pair, nil
}

// burnVerify spends the same hashing work as a real comparison so response
// timing does not reveal whether the email exists.
func (s *Service) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

// Register creates a local user with a hashed password.
func (s *Service) Register(ctx context.Context, r Registration) (*user.User, error) {
	if err := validateRegistration(r); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(r.Password)
	if err != nil {
		return nil, apperr.Transient("hash password", err)
	}

	u, err := s.users.Create(ctx, user.NewUser{
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: hash,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		return nil, apperr.Conflict("An account with this email already exists")
	}
	if err != nil {
		return nil, apperr.Transient("create user", err)
	}

	logger.Info("user registered", map[string]any{"user_id": u.ID})
	return u, nil
}
