package app

import (
	"context"
	"net/http"

	"blog-service/internal/auth/credentials"
	"blog-service/internal/auth/federated"
	"blog-service/internal/auth/handler"
	"blog-service/internal/auth/pending"
	"blog-service/internal/auth/provider"
	"blog-service/internal/auth/provider/google"
	"blog-service/internal/auth/provider/keycloak"
	"blog-service/internal/auth/refresh"
	"blog-service/internal/auth/resolver"
	"blog-service/internal/auth/token"
	"blog-service/internal/config"
	"blog-service/internal/logger"
	"blog-service/internal/middleware"
	"blog-service/internal/user"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

// components are the long-lived collaborators the router is built from.
type components struct {
	codec     *token.Codec
	users     user.Store
	providers *provider.Registry
	pending   pending.Store
}

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	codec, err := token.NewCodec(cfg.JWT)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	registry, err := setupProviders(ctx, cfg)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	var pendingStore pending.Store = pending.NewMemoryStore()
	if infra.Redis != nil {
		pendingStore = pending.NewRedisStore(infra.Redis.Client)
	}

	router := buildRouter(cfg, components{
		codec:     codec,
		users:     user.NewSQLStore(infra.DB),
		providers: registry,
		pending:   pendingStore,
	})

	return router, infra.Close, nil
}

func setupProviders(ctx context.Context, cfg config.Config) (*provider.Registry, error) {
	googleProvider, err := google.New(
		ctx,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
	)
	if err != nil {
		return nil, err
	}
	list := []provider.OAuthProvider{googleProvider}

	if cfg.KeycloakEnabled() {
		keycloakProvider, err := keycloak.New(
			ctx,
			cfg.KeycloakIssuer,
			cfg.KeycloakClientID,
			cfg.KeycloakRedirectURL,
			cfg.KeycloakPublicBaseURL,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, keycloakProvider)
	}

	return provider.NewRegistry(list...), nil
}

func buildRouter(cfg config.Config, c components) *gin.Engine {
	issuer := token.NewIssuer(c.codec, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	authHandler := handler.NewHandler(handler.Deps{
		Credentials: credentials.NewService(
			c.users,
			credentials.NewBcryptHasher(cfg.BcryptCost),
			issuer,
		),
		Refresh: refresh.NewService(c.codec, c.users, issuer),
		Federated: federated.NewService(
			c.providers,
			resolver.NewStoreResolver(c.users),
			issuer,
		),
		Providers:     c.providers,
		Pending:       c.pending,
		Users:         c.users,
		SecureCookies: cfg.SecureCookies,
	})

	authMiddleware := middleware.NewAuthMiddleware(middleware.NewDispatcher(c.codec))
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Tracing(otel.GetTracerProvider()),
		middleware.Logging("/health"),
	)

	root := middleware.NewRouteGroup(&router.RouterGroup, authMiddleware)

	root.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}, middleware.Open)

	authHandler.RegisterRoutes(root, limiter.Middleware())

	for _, route := range root.Routes() {
		policies := make([]string, len(route.Policies))
		for i, p := range route.Policies {
			policies[i] = p.String()
		}
		logger.Debug("route registered", map[string]any{
			"method":   route.Method,
			"path":     route.Path,
			"policies": policies,
		})
	}

	return router
}
