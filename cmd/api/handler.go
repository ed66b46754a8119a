package api

import (
	authUsecase "pwa-push-backend/internal/auth/usecase"
	deviceUsecase "pwa-push-backend/internal/device/usecase"
	notificationUsecase "pwa-push-backend/internal/notification/usecase"
	"pwa-push-backend/pkg/config"
	"pwa-push-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	registry   deviceUsecase.Registry
	dispatcher notificationUsecase.Dispatcher
	adminAuth  authUsecase.AdminAuth
	config     *config.Config
}

func NewHandler(registry deviceUsecase.Registry, dispatcher notificationUsecase.Dispatcher, adminAuth authUsecase.AdminAuth, cfg *config.Config) *Handler {
	log := logger.For("api")
	if adminAuth.Enabled() {
		log.Info("Admin routes require a bearer token")
	} else {
		log.Warn("ADMIN_JWT_SECRET not set, admin routes are open")
	}
	if !cfg.HasVAPIDKey() {
		log.Warn("VAPID_PUBLIC_KEY not configured, clients cannot obtain push tokens")
	}

	return &Handler{
		registry:   registry,
		dispatcher: dispatcher,
		adminAuth:  adminAuth,
		config:     cfg,
	}
}

// Router builds the engine with CORS and all routes mounted
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.registry, h.dispatcher, h.adminAuth, h.config)
	return r
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	return h.Router().Run(addr)
}

func requestLogger() gin.HandlerFunc {
	log := logger.For("http")
	return func(c *gin.Context) {
		c.Next()
		log.WithField("method", c.Request.Method).
			WithField("path", c.Request.URL.Path).
			WithField("status", c.Writer.Status()).
			Debug("Request served")
	}
}
