package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader is the header inbound publishing tools present their key in.
const APIKeyHeader = "X-API-Key"

// APIKeyAuthMiddleware validates the API key header against the configured
// set of accepted keys. Requests are rejected before any side effect occurs.
func APIKeyAuthMiddleware(validKeys []string) gin.HandlerFunc {
	keys := make([]string, 0, len(validKeys))
	for _, k := range validKeys {
		if trimmed := strings.TrimSpace(k); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}

	return func(c *gin.Context) {
		provided := c.GetHeader(APIKeyHeader)
		if provided == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing API key"})
			c.Abort()
			return
		}

		for _, key := range keys {
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) == 1 {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		c.Abort()
	}
}
