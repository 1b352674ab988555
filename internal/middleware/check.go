package middleware

import (
	"errors"
	"net/http"
	"strings"

	"blog-service/internal/auth/token"
)

// errMissingCredential means the request carried no bearer token at all.
var errMissingCredential = errors.New("no bearer token in request")

// Outcome is the result of one check. Claims is set only when the check
// authenticated the caller.
type Outcome struct {
	Passed bool
	Claims *token.Claims
}

// Check is one concrete way of admitting a request.
type Check interface {
	Evaluate(r *http.Request) (Outcome, error)
}

// AccessVerifier verifies access tokens.
type AccessVerifier interface {
	Verify(raw string, role token.Role) (*token.Claims, error)
}

type openCheck struct{}

func (openCheck) Evaluate(*http.Request) (Outcome, error) {
	return Outcome{Passed: true}, nil
}

type bearerCheck struct {
	verifier AccessVerifier
}

func (b bearerCheck) Evaluate(r *http.Request) (Outcome, error) {
	raw, err := bearerToken(r)
	if err != nil {
		return Outcome{}, err
	}
	claims, err := b.verifier.Verify(raw, token.Access)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Passed: true, Claims: claims}, nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// Any other scheme counts as no token.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errMissingCredential
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errMissingCredential
	}
	return raw, nil
}
