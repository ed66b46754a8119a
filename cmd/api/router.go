package api

import (
	"net/http"

	authDelivery "pwa-push-backend/internal/auth/delivery"
	authUsecase "pwa-push-backend/internal/auth/usecase"
	deviceDelivery "pwa-push-backend/internal/device/delivery"
	deviceUsecase "pwa-push-backend/internal/device/usecase"
	notificationDelivery "pwa-push-backend/internal/notification/delivery"
	notificationUsecase "pwa-push-backend/internal/notification/usecase"
	"pwa-push-backend/pkg/config"
	"pwa-push-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, registry deviceUsecase.Registry, dispatcher notificationUsecase.Dispatcher, adminAuth authUsecase.AdminAuth, cfg *config.Config) {
	tokenHandler := deviceDelivery.NewTokenHandler(registry)
	notificationHandler := notificationDelivery.NewNotificationHandler(dispatcher)
	admin := authDelivery.AdminMiddleware(adminAuth)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Client bootstrap
		api.GET("/push/vapid-key", VAPIDKey(cfg))

		// Device token registry; registration is public, listing is not
		tokens := api.Group("/tokens")
		{
			tokens.POST("", tokenHandler.RegisterToken)
			tokens.DELETE("", tokenHandler.DeactivateToken)
			tokens.GET("", admin, tokenHandler.ListTokens)
		}

		// Notification routes (admin)
		notifications := api.Group("/notifications")
		notifications.Use(admin)
		{
			notifications.POST("/send", notificationHandler.Send)
			notifications.POST("/broadcast", notificationHandler.Broadcast)
		}
	}
}
