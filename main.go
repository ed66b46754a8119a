package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	api "pwa-push-backend/cmd/api"
	authUsecase "pwa-push-backend/internal/auth/usecase"
	devicedomain "pwa-push-backend/internal/device/domain"
	deviceRepo "pwa-push-backend/internal/device/repository"
	deviceUsecase "pwa-push-backend/internal/device/usecase"
	"pwa-push-backend/internal/notification/pubsub"
	"pwa-push-backend/internal/notification/scheduler"
	notificationUsecase "pwa-push-backend/internal/notification/usecase"
	"pwa-push-backend/pkg/config"
	"pwa-push-backend/pkg/database"
	"pwa-push-backend/pkg/fcm"
	"pwa-push-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log := logger.For("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&devicedomain.DeviceToken{}); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	// Initialize repositories and use cases (dependency injection)
	tokenRepo := deviceRepo.NewDeviceTokenRepository(db)
	registry := deviceUsecase.NewRegistry(tokenRepo)

	// FCM is initialized on first send; a missing credential surfaces as a
	// configuration error on the send route instead of blocking startup
	provider := fcm.NewProvider(fcm.Credentials{
		ProjectID:            cfg.FirebaseProjectID,
		ServiceAccountBase64: cfg.FirebaseServiceAccountBase64,
		CredentialsFile:      cfg.FirebaseCredentials,
	})
	if cfg.FirebaseServiceAccountBase64 == "" && cfg.FirebaseCredentials == "" {
		log.Warn("No Firebase credentials configured, sends will fail")
	}

	dispatcher := notificationUsecase.NewDispatcher(provider, registry, notificationUsecase.Options{
		DefaultClickURL: cfg.AppURL,
		Appearance: fcm.Appearance{
			Icon:               cfg.NotificationIcon,
			Badge:              cfg.NotificationBadge,
			Tag:                cfg.NotificationTag,
			Color:              cfg.NotificationColor,
			RequireInteraction: cfg.RequireInteraction,
		},
		Timeout:        cfg.SendTimeout,
		MaxRetries:     cfg.SendMaxRetries,
		RetryBaseDelay: cfg.SendRetryBaseDelay,
	})

	// Pub/Sub ingress, only when a project is configured
	if cfg.GoogleProjectID != "" {
		// Extract short topic name from full resource name if necessary
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}

		subscriber, err := pubsub.NewSubscriber(ctx, cfg.GoogleProjectID, topicName, cfg.GoogleCredentials, dispatcher)
		if err != nil {
			log.WithError(err).Error("Failed to initialize notification subscriber")
		} else {
			defer subscriber.Close()
			go func() {
				if err := subscriber.Start(ctx); err != nil {
					log.WithError(err).Error("Notification subscriber stopped")
				}
			}()
		}
	} else {
		log.Info("GOOGLE_PROJECT_ID not configured, Pub/Sub ingress disabled")
	}

	sweeper := scheduler.NewTokenSweeper(dispatcher, cfg.TokenSweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(registry, dispatcher, authUsecase.NewAdminAuth(cfg.AdminJWTSecret), cfg)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		errCh <- handler.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		log.WithError(err).Error("Server stopped")
	case <-ctx.Done():
		log.Info("Shutting down")
	}
}
