package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"blog-service/internal/apperr"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is loaded once at startup and treated as read-only afterwards.
type Config struct {
	AppPort   string `env:"APP_PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseDSN    string `env:"DATABASE_DSN,required,notEmpty"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	JWT JWT

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,required,notEmpty"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	KeycloakIssuer        string `env:"KEYCLOAK_ISSUER"`
	KeycloakClientID      string `env:"KEYCLOAK_CLIENT_ID"`
	KeycloakRedirectURL   string `env:"KEYCLOAK_REDIRECT_URL"`
	KeycloakPublicBaseURL string `env:"KEYCLOAK_PUBLIC_BASE_URL"`

	// SecureCookies marks the OAuth state cookie Secure; disable only for
	// plain-http local development.
	SecureCookies bool `env:"COOKIE_SECURE" envDefault:"true"`

	// OTLPEndpoint enables trace export when set, e.g.
	// http://otel-collector:4318/v1/traces.
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	TraceSampleRate float64 `env:"OTEL_TRACES_SAMPLE_RATE" envDefault:"1"`

	RateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
}

// JWT holds the bearer token settings shared by the codec and the issuer.
type JWT struct {
	Secret          string        `env:"JWT_SECRET,required,notEmpty"`
	RefreshSecret   string        `env:"JWT_REFRESH_SECRET"`
	Issuer          string        `env:"JWT_TOKEN_ISSUER,required,notEmpty"`
	Audience        string        `env:"JWT_TOKEN_AUDIENCE,required,notEmpty"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL,required"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL,required"`
}

// KeycloakEnabled reports whether the optional keycloak provider is configured.
func (c Config) KeycloakEnabled() bool {
	return c.KeycloakIssuer != ""
}

// Load reads configuration from the environment (and a local .env file when
// present). Every failure is a Misconfiguration: the process must not start.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, apperr.Misconfiguration(".env", err)
	}
	return Parse(env.Options{})
}

// Parse builds a Config from the process environment, or from opts.Environment
// when set.
func Parse(opts env.Options) (Config, error) {
	opts.FuncMap = map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(time.Duration(0)): parseTTL,
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, apperr.Misconfiguration("environment", err)
	}
	if cfg.JWT.RefreshSecret == "" {
		cfg.JWT.RefreshSecret = cfg.JWT.Secret
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules the env tags cannot express.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return apperr.Misconfiguration("DATABASE_DRIVER", fmt.Errorf("unsupported driver %q", c.DatabaseDriver))
	}
	if c.JWT.AccessTokenTTL <= 0 {
		return apperr.Misconfiguration("JWT_ACCESS_TOKEN_TTL", errors.New("must be positive"))
	}
	if c.JWT.RefreshTokenTTL <= c.JWT.AccessTokenTTL {
		return apperr.Misconfiguration("JWT_REFRESH_TOKEN_TTL", errors.New("must be longer than the access token TTL"))
	}
	if c.KeycloakEnabled() && (c.KeycloakClientID == "" || c.KeycloakRedirectURL == "" || c.KeycloakPublicBaseURL == "") {
		return apperr.Misconfiguration("KEYCLOAK_*", errors.New("issuer, client id, redirect url and public base url are required together"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return apperr.Misconfiguration("AUTH_RATE_LIMIT_*", errors.New("must be positive"))
	}
	return nil
}

// parseTTL accepts Go durations ("15m") as well as bare seconds ("3600").
func parseTTL(v string) (any, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}
