package api

import (
	"net/http"

	"pwa-push-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

// VAPIDKey returns the public key browsers pass to the messaging SDK
// GET /api/push/vapid-key
func VAPIDKey(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.HasVAPIDKey() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error":   "VAPID key not configured",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"publicKey": cfg.VAPIDPublicKey})
	}
}
