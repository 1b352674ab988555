package handler

import (
	"net/http"

	"blog-service/internal/auth/credentials"

	"github.com/gin-gonic/gin"
)

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type googleTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *Handler) signIn(c *gin.Context) {
	var req credentials.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pair, err := h.credentials.SignIn(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.refresh.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) googleAuthentication(c *gin.Context) {
	var req googleTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pair, err := h.federated.SignIn(c.Request.Context(), "google", req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}
