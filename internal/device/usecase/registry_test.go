package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pwa-push-backend/internal/device/domain"
	"pwa-push-backend/internal/device/repository"
	"pwa-push-backend/pkg/apperror"
	"pwa-push-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRegistry(t *testing.T) (Registry, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewSQLiteConnection(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.DeviceToken{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewRegistry(repository.NewDeviceTokenRepository(db)), db
}

func countRows(t *testing.T, db *gorm.DB, token string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.DeviceToken{}).Where("device_token = ?", token).Count(&n).Error)
	return n
}

func TestRegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	reg, db := newRegistry(t)
	ua := "Mozilla/5.0 (Android)"

	action, err := reg.Register(ctx, "fcm-token-1", &ua)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionInserted, action)

	action, err = reg.Register(ctx, "fcm-token-1", &ua)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdated, action)

	assert.Equal(t, int64(1), countRows(t, db, "fcm-token-1"))
	active, err := reg.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "fcm-token-1", active[0].Token)
}

func TestRegisterReactivatesSoftDeletedToken(t *testing.T) {
	ctx := context.Background()
	reg, db := newRegistry(t)

	_, err := reg.Register(ctx, "fcm-token-1", nil)
	require.NoError(t, err)
	matched, err := reg.Deactivate(ctx, "fcm-token-1")
	require.NoError(t, err)
	assert.True(t, matched)

	active, err := reg.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	action, err := reg.Register(ctx, "fcm-token-1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionUpdated, action)
	assert.Equal(t, int64(1), countRows(t, db, "fcm-token-1"))

	active, err = reg.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestRegisterRequiresToken(t *testing.T) {
	reg, _ := newRegistry(t)

	for _, token := range []string{"", "   "} {
		_, err := reg.Register(context.Background(), token, nil)
		var validationErr *apperror.ValidationError
		require.True(t, errors.As(err, &validationErr), "token %q", token)
		assert.Equal(t, "device_token", validationErr.Field)
	}
}

func TestDeactivateUnknownTokenIsNoop(t *testing.T) {
	reg, db := newRegistry(t)

	matched, err := reg.Deactivate(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Zero(t, countRows(t, db, "never-seen"))
}

func TestDeactivateRequiresToken(t *testing.T) {
	reg, _ := newRegistry(t)

	_, err := reg.Deactivate(context.Background(), "")
	var validationErr *apperror.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

type brokenRepo struct {
	repository.DeviceTokenRepository
	err error
}

func (b brokenRepo) FindByToken(context.Context, string) (*domain.DeviceToken, error) {
	return nil, b.err
}

func (b brokenRepo) Deactivate(context.Context, string) (int64, error) { return 0, b.err }

func (b brokenRepo) ListActive(context.Context) ([]domain.DeviceToken, error) { return nil, b.err }

func TestStoreFailuresSurfaceAsStorageError(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("relation \"pwa_device_tokens\" does not exist")
	reg := NewRegistry(brokenRepo{err: cause})

	_, err := reg.Register(ctx, "t", nil)
	var storageErr *apperror.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.ErrorIs(t, err, cause)

	_, err = reg.Deactivate(ctx, "t")
	assert.True(t, errors.As(err, &storageErr))

	_, err = reg.ListActive(ctx)
	assert.True(t, errors.As(err, &storageErr))
	assert.Contains(t, err.Error(), "does not exist")
}
