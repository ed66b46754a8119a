package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authUsecase "pwa-push-backend/internal/auth/usecase"
	"pwa-push-backend/internal/device/domain"
	"pwa-push-backend/internal/device/repository"
	deviceUsecase "pwa-push-backend/internal/device/usecase"
	notificationUsecase "pwa-push-backend/internal/notification/usecase"
	"pwa-push-backend/pkg/config"
	"pwa-push-backend/pkg/database"
	"pwa-push-backend/pkg/fcm"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, adminSecret, vapidKey string) *Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLiteConnection(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.DeviceToken{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{VAPIDPublicKey: vapidKey, AppURL: "https://app.example/"}
	registry := deviceUsecase.NewRegistry(repository.NewDeviceTokenRepository(db))
	dispatcher := notificationUsecase.NewDispatcher(fcm.NewProvider(fcm.Credentials{}), registry, notificationUsecase.Options{
		DefaultClickURL: cfg.AppURL,
		Timeout:         time.Second,
	})
	return NewHandler(registry, dispatcher, authUsecase.NewAdminAuth(adminSecret), cfg)
}

func request(r http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestHandler(t, "", "").Router()

	w := request(r, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	request(r, http.MethodPost, "/api/tokens", `{"device_token":"abc"}`, "")
	w = request(r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pwa_push_token_registrations_total")
}

func TestCORSPreflight(t *testing.T) {
	r := newTestHandler(t, "", "").Router()

	req := httptest.NewRequest(http.MethodOptions, "/api/tokens", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestVAPIDKey(t *testing.T) {
	w := request(newTestHandler(t, "", "BNc2y-public").Router(), http.MethodGet, "/api/push/vapid-key", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"publicKey":"BNc2y-public"}`, w.Body.String())

	w = request(newTestHandler(t, "", "YOUR_VAPID_KEY_HERE").Router(), http.MethodGet, "/api/push/vapid-key", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSendWithoutCredentialsIsServerError(t *testing.T) {
	r := newTestHandler(t, "", "").Router()

	w := request(r, http.MethodPost, "/api/notifications/send", `{"token":"abc"}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Firebase Admin not initialized")

	w = request(r, http.MethodPost, "/api/notifications/send", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminGuard(t *testing.T) {
	h := newTestHandler(t, "s3cret", "")
	r := h.Router()

	assert.Equal(t, http.StatusOK, request(r, http.MethodPost, "/api/tokens", `{"device_token":"abc"}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/tokens", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/notifications/broadcast", "", "").Code)

	token, err := h.adminAuth.IssueToken("ops", time.Hour)
	require.NoError(t, err)
	w := request(r, http.MethodGet, "/api/tokens", "", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestRegisteredTokensAreListed(t *testing.T) {
	h := newTestHandler(t, "", "")
	r := h.Router()
	ctx := context.Background()

	request(r, http.MethodPost, "/api/tokens", `{"device_token":"one"}`, "")
	request(r, http.MethodPost, "/api/tokens", `{"device_token":"two"}`, "")
	request(r, http.MethodDelete, "/api/tokens", `{"device_token":"one"}`, "")

	active, err := h.registry.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "two", active[0].Token)
}
