package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"blog-service/internal/apperr"
	"blog-service/internal/auth/credentials"
	"blog-service/internal/auth/federated"
	"blog-service/internal/auth/pending"
	"blog-service/internal/auth/provider"
	"blog-service/internal/auth/provider/providertest"
	"blog-service/internal/auth/refresh"
	"blog-service/internal/auth/resolver"
	"blog-service/internal/auth/token"
	"blog-service/internal/config"
	"blog-service/internal/middleware"
	"blog-service/internal/user"
	"blog-service/internal/user/usertest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeTokenEndpoint plays the provider's token endpoint and returns the
// ID token queued for the next exchange.
type fakeTokenEndpoint struct {
	mu           sync.Mutex
	idToken      string
	codeVerifier string
}

func (f *fakeTokenEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	f.codeVerifier = r.PostForm.Get("code_verifier")
	idToken := f.idToken
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "provider-access-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     idToken,
	})
}

type env struct {
	router   *gin.Engine
	store    *usertest.Store
	codec    *token.Codec
	hasher   *credentials.BcryptHasher
	google   *providertest.Issuer
	keycloak *providertest.Issuer
	endpoint *fakeTokenEndpoint
	cookie   pending.CookieOptions
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithCookies(t, false)
}

func newEnvWithCookies(t *testing.T, secure bool) *env {
	t.Helper()
	codec, err := token.NewCodec(config.JWT{
		Secret:   "handler-test-secret-0000000000001",
		Issuer:   "blog-service",
		Audience: "blog-clients",
	})
	require.NoError(t, err)
	issuer := token.NewIssuer(codec, time.Minute, time.Hour)

	store := usertest.NewStore()
	hasher := credentials.NewBcryptHasher(bcrypt.MinCost)

	google := providertest.New(t, "google")
	keycloak := providertest.New(t, "keycloak")
	endpoint := &fakeTokenEndpoint{}
	srv := httptest.NewServer(endpoint)
	t.Cleanup(srv.Close)
	keycloak.Provider.OAuthConfig = &oauth2.Config{
		ClientID:    providertest.ClientID,
		RedirectURL: "http://localhost/oauth/callback/keycloak",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://sso.test/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	registry := provider.NewRegistry(google.Provider, keycloak.Provider)

	h := NewHandler(Deps{
		Credentials:   credentials.NewService(store, hasher, issuer),
		Refresh:       refresh.NewService(codec, store, issuer),
		Federated:     federated.NewService(registry, resolver.NewStoreResolver(store), issuer),
		Providers:     registry,
		Pending:       pending.NewMemoryStore(),
		Users:         store,
		SecureCookies: secure,
	})

	r := gin.New()
	root := middleware.NewRouteGroup(&r.RouterGroup, middleware.NewAuthMiddleware(middleware.NewDispatcher(codec)))
	h.RegisterRoutes(root, func(c *gin.Context) { c.Next() })

	return &env{
		router:   r,
		store:    store,
		codec:    codec,
		hasher:   hasher,
		google:   google,
		keycloak: keycloak,
		endpoint: endpoint,
		cookie:   pending.CookieOptions{Secure: secure},
	}
}

func (e *env) do(method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) addUser(t *testing.T, email, password string) *user.User {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)
	return e.store.Add(user.User{Email: email, PasswordHash: hash, FirstName: "Ada"})
}

func bearer(tok string) http.Header {
	return http.Header{"Authorization": {"Bearer " + tok}}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSignIn(t *testing.T) {
	e := newEnv(t)
	u := e.addUser(t, "a@x.com", "right-password")

	w := e.do(http.MethodPost, "/auth/sign-in", map[string]string{"email": "a@x.com", "password": "right-password"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pair := decode[token.Pair](t, w)

	claims, err := e.codec.Verify(pair.AccessToken, token.Access)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestSignIn_WrongPassword(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "a@x.com", "right")

	w := e.do(http.MethodPost, "/auth/sign-in", map[string]string{"email": "a@x.com", "password": "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode[apperr.Response](t, w)
	assert.Equal(t, apperr.CodeUnauthorized, body.Error.Code)
	assert.Equal(t, "Incorrect password", body.Error.Message)
}

func TestSignIn_MissingFields(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/auth/sign-in", map[string]string{"email": "a@x.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.CodeInvalidInput, decode[apperr.Response](t, w).Error.Code)
}

func TestSignIn_StoreDown(t *testing.T) {
	e := newEnv(t)
	e.store.Err = assert.AnError

	w := e.do(http.MethodPost, "/auth/sign-in", map[string]string{"email": "a@x.com", "password": "pw"}, nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode[apperr.Response](t, w)
	assert.True(t, body.Error.Retryable)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestAccessToken(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "a@x.com", "right-password")
	pair := decode[token.Pair](t, e.do(http.MethodPost, "/auth/sign-in",
		map[string]string{"email": "a@x.com", "password": "right-password"}, nil))

	w := e.do(http.MethodPost, "/auth/access-token", map[string]string{"refreshToken": pair.RefreshToken}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["accessToken"])
	_, hasRefresh := body["refreshToken"]
	assert.False(t, hasRefresh)

	w = e.do(http.MethodPost, "/auth/access-token", map[string]string{"refreshToken": pair.AccessToken}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid refresh token", decode[apperr.Response](t, w).Error.Message)
}

func TestGoogleAuthentication(t *testing.T) {
	e := newEnv(t)

	raw := e.google.Mint(providertest.Claims("g-9", "ada@x.com"))
	w := e.do(http.MethodPost, "/auth/google-authentication", map[string]string{"token": raw}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pair := decode[token.Pair](t, w)
	assert.NotEmpty(t, pair.RefreshToken)

	w = e.do(http.MethodPost, "/auth/google-authentication",
		map[string]string{"token": e.google.MintWithForeignKey(providertest.Claims("g-9", "ada@x.com"))}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1, e.store.Len())
}

func TestCreateUserAndMe(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/users", map[string]string{
		"email": "new@x.com", "password": "long-enough", "firstName": "New",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "long-enough")
	assert.NotContains(t, strings.ToLower(w.Body.String()), "password")

	w = e.do(http.MethodPost, "/users", map[string]string{"email": "new@x.com", "password": "long-enough"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	pair := decode[token.Pair](t, e.do(http.MethodPost, "/auth/sign-in",
		map[string]string{"email": "new@x.com", "password": "long-enough"}, nil))

	w = e.do(http.MethodGet, "/users/me", nil, bearer(pair.AccessToken))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decode[user.User](t, w)
	assert.Equal(t, "new@x.com", me.Email)
	assert.Equal(t, "New", me.FirstName)

	w = e.do(http.MethodGet, "/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No access token provided", decode[apperr.Response](t, w).Error.Message)

	w = e.do(http.MethodGet, "/users/me", nil, bearer(pair.RefreshToken))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decode[apperr.Response](t, w).Error.Message)
}

func startLogin(t *testing.T, e *env, providerName string) (state string, cookie *http.Cookie, challenge string) {
	t.Helper()
	w := e.do(http.MethodGet, "/oauth/login/"+providerName, nil, nil)
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state = loc.Query().Get("state")
	challenge = loc.Query().Get("code_challenge")
	require.NotEmpty(t, state)

	for _, c := range w.Result().Cookies() {
		if c.Name == e.cookie.Name() {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, e.cookie.Secure, cookie.Secure)
	assert.Equal(t, state, cookie.Value)
	return state, cookie, challenge
}

func callback(e *env, providerName, query string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/oauth/callback/"+providerName+"?"+query, nil)
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestOAuthCodeFlow(t *testing.T) {
	e := newEnv(t)
	e.endpoint.idToken = e.keycloak.Mint(providertest.Claims("kc-1", "kc@x.com"))

	state, cookie, challenge := startLogin(t, e, "keycloak")

	w := callback(e, "keycloak", "code=abc&state="+state, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pair := decode[token.Pair](t, w)
	_, err := e.codec.Verify(pair.AccessToken, token.Access)
	require.NoError(t, err)

	e.endpoint.mu.Lock()
	verifier := e.endpoint.codeVerifier
	e.endpoint.mu.Unlock()
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), challenge)

	// The pending authorization is consumed.
	w = callback(e, "keycloak", "code=abc&state="+state, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	u, err := e.store.FindByFederatedID(context.Background(), "keycloak", "kc-1")
	require.NoError(t, err)
	require.NotNil(t, u)
}

func TestOAuthCodeFlow_CookiePrefixFollowsSecure(t *testing.T) {
	for name, tc := range map[string]struct {
		secure bool
		cookie string
	}{
		"secure":     {secure: true, cookie: pending.CookieName},
		"plain http": {secure: false, cookie: pending.InsecureCookieName},
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnvWithCookies(t, tc.secure)
			e.endpoint.idToken = e.keycloak.Mint(providertest.Claims("kc-"+name, "kc@x.com"))

			state, cookie, _ := startLogin(t, e, "keycloak")
			assert.Equal(t, tc.cookie, cookie.Name)

			w := callback(e, "keycloak", "code=abc&state="+state, cookie)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		})
	}
}

func TestOAuthCallback_Rejections(t *testing.T) {
	e := newEnv(t)
	e.endpoint.idToken = e.keycloak.Mint(providertest.Claims("kc-1", "kc@x.com"))

	t.Run("state mismatch", func(t *testing.T) {
		_, cookie, _ := startLogin(t, e, "keycloak")
		w := callback(e, "keycloak", "code=abc&state=forged", cookie)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no cookie", func(t *testing.T) {
		state, _, _ := startLogin(t, e, "keycloak")
		w := callback(e, "keycloak", "code=abc&state="+state, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("provider error", func(t *testing.T) {
		state, cookie, _ := startLogin(t, e, "keycloak")
		w := callback(e, "keycloak", "error=access_denied&state="+state, cookie)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = callback(e, "keycloak", "code=abc&state="+state, cookie)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("provider swapped", func(t *testing.T) {
		state, cookie, _ := startLogin(t, e, "keycloak")
		w := callback(e, "google", "code=abc&state="+state, cookie)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing code", func(t *testing.T) {
		state, cookie, _ := startLogin(t, e, "keycloak")
		w := callback(e, "keycloak", "state="+state, cookie)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOAuthLogin_UnsupportedProvider(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/oauth/login/github", nil, nil).Code)
	// google is configured for ID token verification only here
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/oauth/login/google", nil, nil).Code)
}
