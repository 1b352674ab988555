package handler

import (
	"context"

	"blog-service/internal/auth/credentials"
	"blog-service/internal/auth/pending"
	"blog-service/internal/auth/provider"
	"blog-service/internal/auth/refresh"
	"blog-service/internal/auth/token"
	"blog-service/internal/middleware"
	"blog-service/internal/user"

	"github.com/gin-gonic/gin"
)

type CredentialService interface {
	SignIn(ctx context.Context, c credentials.Credentials) (token.Pair, error)
	Register(ctx context.Context, r credentials.Registration) (*user.User, error)
}

type RefreshService interface {
	Refresh(ctx context.Context, raw string) (refresh.Result, error)
}

type FederatedService interface {
	SignIn(ctx context.Context, providerName, rawIDToken string) (token.Pair, error)
	CompleteAuthCode(ctx context.Context, providerName, code, codeVerifier string) (token.Pair, error)
}

// Deps are the collaborators the HTTP layer delegates to.
type Deps struct {
	Credentials CredentialService
	Refresh     RefreshService
	Federated   FederatedService
	Providers   *provider.Registry
	Pending     pending.Store
	Users       user.Store

	// SecureCookies marks the OAuth state cookie Secure.
	SecureCookies bool
}

type Handler struct {
	credentials CredentialService
	refresh     RefreshService
	federated   FederatedService
	providers   *provider.Registry
	pending     pending.Store
	users       user.Store
	cookieOpts  pending.CookieOptions
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		credentials: d.Credentials,
		refresh:     d.Refresh,
		federated:   d.Federated,
		providers:   d.Providers,
		pending:     d.Pending,
		users:       d.Users,
		cookieOpts:  pending.CookieOptions{Secure: d.SecureCookies},
	}
}

// RegisterRoutes mounts the auth and user routes. limit guards every
// route that accepts credentials.
func (h *Handler) RegisterRoutes(root *middleware.RouteGroup, limit gin.HandlerFunc) {
	auth := root.Group("/auth", middleware.Open).Use(limit)
	auth.POST("/sign-in", h.signIn)
	auth.POST("/access-token", h.refreshToken)
	auth.POST("/google-authentication", h.googleAuthentication)

	oauth := root.Group("/oauth", middleware.Open).Use(limit)
	oauth.GET("/login/:provider", h.oauthLogin)
	oauth.GET("/callback/:provider", h.oauthCallback)

	signUp := root.Group("/users", middleware.Open).Use(limit)
	signUp.POST("", h.createUser)

	users := root.Group("/users")
	users.GET("/me", h.me)
}
