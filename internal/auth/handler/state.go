package handler

import (
	"crypto/subtle"

	"blog-service/internal/auth/pending"

	"github.com/gin-gonic/gin"
)

// validateState checks the state query parameter against the cookie set
// when the flow started.
func validateState(c *gin.Context, opts pending.CookieOptions) (string, bool) {
	stateQuery := c.Query("state")
	if stateQuery == "" {
		return "", false
	}

	cookieState := pending.StateFromRequest(c.Request, opts)
	if cookieState == "" {
		return "", false
	}

	return stateQuery, subtle.ConstantTimeCompare([]byte(cookieState), []byte(stateQuery)) == 1
}
