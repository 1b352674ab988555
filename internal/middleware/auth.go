package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"blog-service/internal/apperr"
	"blog-service/internal/auth/token"
)

// unexported, collision-proof context key
type claimsContextKeyType struct{}

var claimsKey = claimsContextKeyType{}

// ClaimsFromContext returns the claims of the authenticated caller.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*token.Claims)
	return c, ok && c != nil
}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	id, err := c.UserID()
	return id, err == nil
}

func withClaims(ctx context.Context, c *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

type AuthMiddleware struct {
	dispatcher *Dispatcher
}

func NewAuthMiddleware(dispatcher *Dispatcher) *AuthMiddleware {
	return &AuthMiddleware{dispatcher: dispatcher}
}

// RequireAuth guards next with policies, resolved once against the
// default when none are given.
func (a *AuthMiddleware) RequireAuth(next http.Handler, policies ...Policy) http.Handler {
	resolved := ResolvePolicies(policies, nil)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Run checks
		claims, err := a.dispatcher.Authorize(r, resolved)
		if err != nil {
			writeError(w, err)
			return
		}

		// 2. Attach claims to context
		if claims != nil {
			r = r.WithContext(withClaims(r.Context(), claims))
		}

		// 3. Continue request
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, err error) {
	status, body := apperr.ToResponse(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
