package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"blog-service/internal/apperr"
	"blog-service/internal/auth/token"
	"blog-service/internal/logger"
)

const noAccessToken = "No access token provided"

// Dispatcher decides whether a request may reach its handler.
type Dispatcher struct {
	open   Check
	bearer Check
}

func NewDispatcher(verifier AccessVerifier) *Dispatcher {
	return &Dispatcher{
		open:   openCheck{},
		bearer: bearerCheck{verifier: verifier},
	}
}

// checksFor maps a policy to the checks that implement it.
func (d *Dispatcher) checksFor(p Policy) []Check {
	switch p {
	case Open:
		return []Check{d.open}
	case Bearer:
		return []Check{d.bearer}
	default:
		return nil
	}
}

// Authorize evaluates policies in order and stops at the first check that
// passes. Claims are nil when the passing check does not authenticate.
//
// A rejection is always a generic Unauthorized. The one exception is a
// request where every evaluated check failed only because no bearer
// token was sent, which is reported as "No access token provided".
func (d *Dispatcher) Authorize(r *http.Request, policies []Policy) (*token.Claims, error) {
	evaluated := 0
	onlyMissing := true

	for _, p := range policies {
		checks := d.checksFor(p)
		if checks == nil {
			logger.Error("no checks for auth policy", map[string]any{"policy": p.String()})
			onlyMissing = false
			continue
		}
		for _, c := range checks {
			evaluated++
			out, err := evaluate(c, r)
			if err == nil && out.Passed {
				return out.Claims, nil
			}
			if !errors.Is(err, errMissingCredential) {
				onlyMissing = false
			}
			logger.Debug("auth check failed", map[string]any{
				"policy": p.String(),
				"reason": failureReason(err),
				"path":   r.URL.Path,
			})
		}
	}

	if evaluated > 0 && onlyMissing {
		return nil, apperr.Unauthorized(noAccessToken)
	}
	return nil, apperr.Unauthorized("")
}

// evaluate runs c, turning a panic into a failed check.
func evaluate(c Check, r *http.Request) (out Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = Outcome{}, fmt.Errorf("auth check panicked: %v", rec)
		}
	}()
	return c.Evaluate(r)
}

func failureReason(err error) string {
	switch {
	case err == nil:
		return "not passed"
	case errors.Is(err, errMissingCredential):
		return "missing"
	case errors.Is(err, token.ErrExpiredToken):
		return "expired"
	case errors.Is(err, token.ErrInvalidToken):
		return "invalid"
	default:
		return "error"
	}
}
