package middleware

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/denisAlshanov/mediaresolver/internal/config"
	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

// APIKeyMiddleware requires a matching X-API-Key header. With no key
// configured the API is open.
func APIKeyMiddleware(cfg *config.APIConfig) gin.HandlerFunc {
	expected := []byte(cfg.APIKey)

	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		apiKey := c.GetHeader("X-API-Key")
		if apiKey != "" && subtle.ConstantTimeCompare([]byte(apiKey), expected) == 1 {
			c.Next()
			return
		}

		utils.LogWarn(c.Request.Context(), "Rejected request with missing or wrong API key", utils.Fields{
			"ip": c.ClientIP(),
		})
		c.JSON(401, gin.H{
			"error":      utils.NewUnauthorizedError(),
			"request_id": c.GetString("request_id"),
			"timestamp":  time.Now().Format(time.RFC3339),
		})
		c.Abort()
	}
}
