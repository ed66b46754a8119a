package usecase

import (
	"context"
	"strings"

	"pwa-push-backend/internal/device/domain"
	"pwa-push-backend/internal/device/repository"
	"pwa-push-backend/pkg/apperror"
	"pwa-push-backend/pkg/logger"
	"pwa-push-backend/pkg/metrics"
)

// Registry is the device token registry
type Registry interface {
	// Register upserts a token; calling it again with the same token is harmless
	Register(ctx context.Context, token string, userAgent *string) (domain.Action, error)

	// Deactivate soft-deletes a token and reports whether a row matched;
	// unknown tokens are not an error
	Deactivate(ctx context.Context, token string) (bool, error)

	// ListActive returns active tokens, newest first
	ListActive(ctx context.Context) ([]domain.DeviceToken, error)
}

type registry struct {
	repo repository.DeviceTokenRepository
}

// NewRegistry creates a new Registry backed by repo
func NewRegistry(repo repository.DeviceTokenRepository) Registry {
	return &registry{repo: repo}
}

var log = logger.For("registry")

func (r *registry) Register(ctx context.Context, token string, userAgent *string) (domain.Action, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperror.Required("device_token", "Device token is required")
	}
	if userAgent != nil && *userAgent == "" {
		userAgent = nil
	}

	existing, err := r.repo.FindByToken(ctx, token)
	if err != nil {
		return "", &apperror.StorageError{Op: "lookup", Err: err}
	}

	if existing != nil {
		if _, err := r.repo.Reactivate(ctx, token, userAgent); err != nil {
			return "", &apperror.StorageError{Op: "update", Err: err}
		}
		log.WithField("token", logger.MaskToken(token)).Info("Token updated")
		metrics.TokenRegistrations.WithLabelValues(string(domain.ActionUpdated)).Inc()
		r.refreshActiveGauge(ctx)
		return domain.ActionUpdated, nil
	}

	if _, err := r.repo.Create(ctx, token, userAgent); err != nil {
		return "", &apperror.StorageError{Op: "insert", Err: err}
	}
	log.WithField("token", logger.MaskToken(token)).Info("Token saved")
	metrics.TokenRegistrations.WithLabelValues(string(domain.ActionInserted)).Inc()
	r.refreshActiveGauge(ctx)
	return domain.ActionInserted, nil
}

func (r *registry) Deactivate(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, apperror.Required("device_token", "Device token is required")
	}

	affected, err := r.repo.Deactivate(ctx, token)
	if err != nil {
		return false, &apperror.StorageError{Op: "deactivate", Err: err}
	}
	if affected == 0 {
		log.WithField("token", logger.MaskToken(token)).Debug("Deactivate matched no token")
		return false, nil
	}

	log.WithField("token", logger.MaskToken(token)).Info("Token deactivated")
	metrics.TokenDeactivations.Inc()
	r.refreshActiveGauge(ctx)
	return true, nil
}

func (r *registry) ListActive(ctx context.Context) ([]domain.DeviceToken, error) {
	tokens, err := r.repo.ListActive(ctx)
	if err != nil {
		return nil, &apperror.StorageError{Op: "list", Err: err}
	}
	if tokens == nil {
		tokens = []domain.DeviceToken{}
	}
	metrics.ActiveTokens.Set(float64(len(tokens)))
	return tokens, nil
}

func (r *registry) refreshActiveGauge(ctx context.Context) {
	count, err := r.repo.CountActive(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not count active tokens")
		return
	}
	metrics.ActiveTokens.Set(float64(count))
}
