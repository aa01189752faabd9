package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"pcds2030/internal/logger"
)

// PipelineKeyHeader carries the shared key of the report export jobs.
const PipelineKeyHeader = "X-API-Key"

// PipelineAuthMiddleware guards the /pipeline routes used by scheduled
// report exports. Requests passing it carry no user identity.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "PIPELINE_NOT_CONFIGURED", "kind": "internal", "message": "Report pipeline is not configured"}})
			return
		}
		key := c.GetHeader(PipelineKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			logger.Get().Warnw("rejected pipeline request",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"error": gin.H{"code": "INVALID_API_KEY", "kind": "unauthorized", "message": "Invalid or missing API key"}})
			return
		}
		c.Next()
	}
}
