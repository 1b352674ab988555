package handler

import (
	"errors"
	"net/http"

	"blog-service/internal/apperr"
	"blog-service/internal/auth/credentials"
	"blog-service/internal/middleware"
	"blog-service/internal/user"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createUser(c *gin.Context) {
	var req credentials.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.credentials.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, u)
}

// me returns the profile of the authenticated caller.
func (h *Handler) me(c *gin.Context) {
	id, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, apperr.Unauthorized(""))
		return
	}

	u, err := h.users.FindByID(c.Request.Context(), id)
	if errors.Is(err, user.ErrNotFound) {
		respondError(c, apperr.NotFound("user"))
		return
	}
	if err != nil {
		respondError(c, apperr.Transient("find user", err))
		return
	}

	c.JSON(http.StatusOK, u)
}
