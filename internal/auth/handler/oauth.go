package handler

import (
	"errors"
	"net/http"
	"time"

	"blog-service/internal/apperr"
	"blog-service/internal/auth/pending"
	"blog-service/internal/auth/provider"
	"blog-service/internal/logger"

	"github.com/gin-gonic/gin"
)

const invalidAuthorization = "Invalid or expired authorization"

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		respondError(c, apperr.NotFound("oauth provider"))
		return
	}

	state, err := pending.GenerateState()
	if err != nil {
		respondError(c, apperr.Internal(err))
		return
	}
	verifier, challenge := generatePKCE()

	authURL, err := p.AuthCodeURL(state, challenge)
	if errors.Is(err, provider.ErrCodeFlowUnsupported) {
		respondError(c, apperr.NotFound("oauth provider"))
		return
	}
	if err != nil {
		respondError(c, apperr.Internal(err))
		return
	}

	if err := h.pending.Put(c.Request.Context(), pending.Authorization{
		State:        state,
		Provider:     providerName,
		CodeVerifier: verifier,
		ExpiresAt:    time.Now().Add(pending.TTL),
	}); err != nil {
		respondError(c, apperr.Transient("store pending authorization", err))
		return
	}

	pending.SetCookie(c.Writer, state, h.cookieOpts)
	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	// The state cookie is single-use whatever the outcome.
	state, stateOK := validateState(c, h.cookieOpts)
	pending.ClearCookie(c.Writer, h.cookieOpts)

	// CASE 1: OAuth error (user denied consent, provider failure)
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		if stateOK {
			_, _ = h.pending.Take(c.Request.Context(), state)
		}
		respondError(c, apperr.Unauthorized("Authorization was not granted"))
		return
	}

	if !stateOK {
		respondError(c, apperr.Unauthorized("Invalid state"))
		return
	}

	// CASE 2: Normal OAuth callback
	authz, err := h.pending.Take(c.Request.Context(), state)
	if errors.Is(err, pending.ErrNotFound) {
		respondError(c, apperr.Unauthorized(invalidAuthorization))
		return
	}
	if err != nil {
		respondError(c, apperr.Transient("take pending authorization", err))
		return
	}
	if authz.Provider != providerName {
		respondError(c, apperr.Unauthorized(invalidAuthorization))
		return
	}

	code := c.Query("code")
	if code == "" {
		respondError(c, apperr.InvalidInput("code", "missing"))
		return
	}

	pair, err := h.federated.CompleteAuthCode(
		c.Request.Context(),
		providerName,
		code,
		authz.CodeVerifier,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}
