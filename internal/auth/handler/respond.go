package handler

import (
	"net/http"

	"blog-service/internal/apperr"
	"blog-service/internal/logger"
	"blog-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

// respondError renders err as the standard error body. Causes of server
// errors are logged, never returned.
func respondError(c *gin.Context, err error) {
	status, body := apperr.ToResponse(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", map[string]any{
			"path":       c.FullPath(),
			"code":       body.Error.Code,
			"error":      err.Error(),
			"request_id": middleware.RequestIDFrom(c),
		})
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	logger.Debug("invalid request body", map[string]any{"path": c.FullPath(), "error": err.Error()})
	respondError(c, apperr.InvalidInput("request body", "missing or malformed fields"))
}
