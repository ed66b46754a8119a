package delivery

import (
	"net/http"
	"strings"

	"pwa-push-backend/internal/auth/usecase"
	"pwa-push-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware requires an admin bearer token when auth is enabled and
// lets every request through otherwise.
func AdminMiddleware(auth usecase.AdminAuth) gin.HandlerFunc {
	log := logger.For("auth")

	return func(c *gin.Context) {
		if !auth.Enabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid authorization header format"})
			c.Abort()
			return
		}

		subject, err := auth.ValidateToken(parts[1])
		if err != nil {
			log.WithError(err).WithField("path", c.FullPath()).Warn("Rejected admin request")
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("admin", subject)
		c.Next()
	}
}
