package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
)

// APIKeyAuth guards operational endpoints such as /metrics with a shared
// key sent as X-API-Key or a bearer token. An empty key leaves the route
// open.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		key := c.GetHeader("X-API-Key")
		if key == "" {
			key = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or missing API key"))
			return
		}
		c.Next()
	}
}
