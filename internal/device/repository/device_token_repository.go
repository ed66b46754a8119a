package repository

import (
	"context"
	"errors"
	"time"

	"pwa-push-backend/internal/device/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokenRepository defines the persistence operations of the token registry
type DeviceTokenRepository interface {
	// FindByToken returns nil, nil when no row holds the token
	FindByToken(ctx context.Context, token string) (*domain.DeviceToken, error)

	// Create inserts an active row; a concurrent insert of the same token
	// turns into an update through the unique index
	Create(ctx context.Context, token string, userAgent *string) (*domain.DeviceToken, error)

	// Reactivate sets is_active=true and overwrites user_agent
	Reactivate(ctx context.Context, token string, userAgent *string) (int64, error)

	// Deactivate sets is_active=false; zero rows affected is not an error
	Deactivate(ctx context.Context, token string) (int64, error)

	// ListActive returns active rows, newest first
	ListActive(ctx context.Context) ([]domain.DeviceToken, error)

	CountActive(ctx context.Context) (int64, error)
}

// deviceTokenRepository implements DeviceTokenRepository with GORM
type deviceTokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDeviceTokenRepository creates a new instance of deviceTokenRepository
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{
		db:  db,
		now: time.Now,
	}
}

func (r *deviceTokenRepository) FindByToken(ctx context.Context, token string) (*domain.DeviceToken, error) {
	var row domain.DeviceToken
	err := r.db.WithContext(ctx).Where("device_token = ?", token).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *deviceTokenRepository) Create(ctx context.Context, token string, userAgent *string) (*domain.DeviceToken, error) {
	now := r.now()
	row := &domain.DeviceToken{
		ID:        uuid.New().String(),
		Token:     token,
		Active:    true,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// INSERT ... ON CONFLICT (device_token) DO UPDATE
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_token"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "user_agent", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *deviceTokenRepository) Reactivate(ctx context.Context, token string, userAgent *string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.DeviceToken{}).
		Where("device_token = ?", token).
		Updates(map[string]interface{}{
			"is_active":  true,
			"user_agent": userAgent,
			"updated_at": r.now(),
		})
	return result.RowsAffected, result.Error
}

func (r *deviceTokenRepository) Deactivate(ctx context.Context, token string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.DeviceToken{}).
		Where("device_token = ?", token).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": r.now(),
		})
	return result.RowsAffected, result.Error
}

func (r *deviceTokenRepository) ListActive(ctx context.Context) ([]domain.DeviceToken, error) {
	var tokens []domain.DeviceToken
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *deviceTokenRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.DeviceToken{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}
