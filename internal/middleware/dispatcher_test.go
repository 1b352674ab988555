package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"blog-service/internal/apperr"
	"blog-service/internal/auth/token"
	"blog-service/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-0000000001"

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(config.JWT{
		Secret:   testSecret,
		Issuer:   "blog-service",
		Audience: "blog-clients",
	})
	require.NoError(t, err)
	return codec
}

func signAccess(t *testing.T, codec *token.Codec, sub string, ttl time.Duration) string {
	t.Helper()
	c := &token.Claims{Email: "a@x.com"}
	c.Subject = sub
	raw, err := codec.Sign(c, token.Access, ttl)
	require.NoError(t, err)
	return raw
}

func requestWithAuth(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/posts", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func assertRejected(t *testing.T, err error, message string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, apperr.CodeUnauthorized, appErr.Code)
	assert.Equal(t, message, appErr.Message)
}

// countingVerifier records calls and optionally panics.
type countingVerifier struct {
	calls atomic.Int32
	panic bool
	inner AccessVerifier
}

func (v *countingVerifier) Verify(raw string, role token.Role) (*token.Claims, error) {
	v.calls.Add(1)
	if v.panic {
		panic("verifier exploded")
	}
	return v.inner.Verify(raw, role)
}

func TestAuthorize_OpenWithoutHeader(t *testing.T) {
	d := NewDispatcher(newTestCodec(t))

	claims, err := d.Authorize(requestWithAuth(""), []Policy{Open})
	require.NoError(t, err)
	assert.Nil(t, claims)
}

func TestAuthorize_BearerWithoutHeader(t *testing.T) {
	d := NewDispatcher(newTestCodec(t))

	_, err := d.Authorize(requestWithAuth(""), []Policy{Bearer})
	assertRejected(t, err, "No access token provided")
}

func TestAuthorize_NonBearerSchemeCountsAsMissing(t *testing.T) {
	d := NewDispatcher(newTestCodec(t))

	_, err := d.Authorize(requestWithAuth("Basic dXNlcjpwYXNz"), []Policy{Bearer})
	assertRejected(t, err, "No access token provided")

	_, err = d.Authorize(requestWithAuth("Bearer   "), []Policy{Bearer})
	assertRejected(t, err, "No access token provided")
}

func TestAuthorize_ValidBearer(t *testing.T) {
	codec := newTestCodec(t)
	d := NewDispatcher(codec)

	claims, err := d.Authorize(requestWithAuth("Bearer "+signAccess(t, codec, "7", time.Minute)), []Policy{Bearer})
	require.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)

	claims, err = d.Authorize(requestWithAuth("bearer "+signAccess(t, codec, "7", time.Minute)), []Policy{Bearer})
	require.NoError(t, err)
	assert.NotNil(t, claims)
}

func TestAuthorize_BearerRejections(t *testing.T) {
	codec := newTestCodec(t)
	d := NewDispatcher(codec)

	refreshClaims := &token.Claims{}
	refreshClaims.Subject = "7"
	refresh, err := codec.Sign(refreshClaims, token.Refresh, time.Hour)
	require.NoError(t, err)

	// Right secret and claims, HS512 instead of HS256.
	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "7",
		"iss": "blog-service",
		"aud": "blog-clients",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"wrong algorithm", wrongAlg},
		{"refresh token", refresh},
		{"expired", signAccess(t, codec, "7", -time.Second)},
		{"garbage", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Authorize(requestWithAuth("Bearer "+tt.raw), []Policy{Bearer})
			assertRejected(t, err, "Unauthorized")
		})
	}
}

func TestAuthorize_FirstPassingCheckWins(t *testing.T) {
	v := &countingVerifier{inner: newTestCodec(t)}
	d := NewDispatcher(v)

	claims, err := d.Authorize(requestWithAuth("Bearer whatever"), []Policy{Open, Bearer})
	require.NoError(t, err)
	assert.Nil(t, claims)
	assert.Equal(t, int32(0), v.calls.Load())
}

func TestAuthorize_FailedCheckFallsThrough(t *testing.T) {
	v := &countingVerifier{inner: newTestCodec(t)}
	d := NewDispatcher(v)

	_, err := d.Authorize(requestWithAuth("Bearer invalid"), []Policy{Bearer, Open})
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.calls.Load())
}

func TestAuthorize_PanickingCheckIsAFailure(t *testing.T) {
	v := &countingVerifier{panic: true}
	d := NewDispatcher(v)

	_, err := d.Authorize(requestWithAuth("Bearer x"), []Policy{Bearer, Open})
	require.NoError(t, err)

	_, err = d.Authorize(requestWithAuth("Bearer x"), []Policy{Bearer})
	assertRejected(t, err, "Unauthorized")
}

func TestAuthorize_EmptyOrUnknownPolicies(t *testing.T) {
	d := NewDispatcher(newTestCodec(t))

	_, err := d.Authorize(requestWithAuth(""), nil)
	assertRejected(t, err, "Unauthorized")

	_, err = d.Authorize(requestWithAuth(""), []Policy{Policy(99)})
	assertRejected(t, err, "Unauthorized")
}

func TestResolvePolicies(t *testing.T) {
	assert.Equal(t, []Policy{Bearer}, ResolvePolicies(nil, nil))
	assert.Equal(t, []Policy{Open}, ResolvePolicies(nil, []Policy{Open}))
	assert.Equal(t, []Policy{Bearer}, ResolvePolicies([]Policy{Bearer}, []Policy{Open}))
	assert.Equal(t, []Policy{Open, Bearer}, ResolvePolicies([]Policy{Open, Bearer}, nil))
}
