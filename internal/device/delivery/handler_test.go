package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pwa-push-backend/internal/device/domain"
	"pwa-push-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	tokens      map[string]*domain.DeviceToken
	err         error
	deactivated []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{tokens: map[string]*domain.DeviceToken{}}
}

func (f *fakeRegistry) Register(_ context.Context, token string, ua *string) (domain.Action, error) {
	if token == "" {
		return "", apperror.Required("device_token", "Device token is required")
	}
	if f.err != nil {
		return "", f.err
	}
	if t, ok := f.tokens[token]; ok {
		t.Active = true
		t.UserAgent = ua
		return domain.ActionUpdated, nil
	}
	f.tokens[token] = &domain.DeviceToken{ID: "id-" + token, Token: token, Active: true, UserAgent: ua, CreatedAt: time.Now()}
	return domain.ActionInserted, nil
}

func (f *fakeRegistry) Deactivate(_ context.Context, token string) (bool, error) {
	if token == "" {
		return false, apperror.Required("device_token", "Device token is required")
	}
	if f.err != nil {
		return false, f.err
	}
	f.deactivated = append(f.deactivated, token)
	t, ok := f.tokens[token]
	if ok {
		t.Active = false
	}
	return ok, nil
}

func (f *fakeRegistry) ListActive(context.Context) ([]domain.DeviceToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.DeviceToken
	for _, t := range f.tokens {
		if t.Active {
			out = append(out, *t)
		}
	}
	return out, nil
}

func newRouter(reg *fakeRegistry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTokenHandler(reg)
	r.POST("/api/tokens", h.RegisterToken)
	r.DELETE("/api/tokens", h.DeactivateToken)
	r.GET("/api/tokens", h.ListTokens)
	return r
}

func do(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var payload map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &payload)
	return w, payload
}

func TestRegisterTokenInsertThenUpdate(t *testing.T) {
	r := newRouter(newFakeRegistry())

	w, body := do(r, http.MethodPost, "/api/tokens", `{"device_token":"abc","user_agent":"Chrome"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "inserted", body["action"])

	w, body = do(r, http.MethodPost, "/api/tokens", `{"device_token":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "updated", body["action"])
	assert.Equal(t, "Token updated successfully", body["message"])
}

func TestRegisterTokenMissingToken(t *testing.T) {
	r := newRouter(newFakeRegistry())

	w, body := do(r, http.MethodPost, "/api/tokens", `{"user_agent":"Chrome"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Device token is required", body["error"])

	w, _ = do(r, http.MethodPost, "/api/tokens", ``)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterTokenStoreFailure(t *testing.T) {
	reg := newFakeRegistry()
	reg.err = &apperror.StorageError{Op: "insert", Err: errors.New("duplicate key value")}
	r := newRouter(reg)

	w, body := do(r, http.MethodPost, "/api/tokens", `{"device_token":"abc"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to save token", body["error"])
	assert.Equal(t, "duplicate key value", body["details"])
}

func TestDeactivateToken(t *testing.T) {
	reg := newFakeRegistry()
	r := newRouter(reg)
	do(r, http.MethodPost, "/api/tokens", `{"device_token":"abc"}`)

	w, body := do(r, http.MethodDelete, "/api/tokens", `{"device_token":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []string{"abc"}, reg.deactivated)

	w, _ = do(r, http.MethodDelete, "/api/tokens", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTokensHidesRawToken(t *testing.T) {
	reg := newFakeRegistry()
	r := newRouter(reg)
	long := "dGhpcy1pcy1hLXZlcnktbG9uZy1mY20tdG9rZW4tdmFsdWU"
	do(r, http.MethodPost, "/api/tokens", `{"device_token":"`+long+`"}`)
	do(r, http.MethodPost, "/api/tokens", `{"device_token":"inactive"}`)
	do(r, http.MethodDelete, "/api/tokens", `{"device_token":"inactive"}`)

	w, body := do(r, http.MethodGet, "/api/tokens", ``)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])

	tokens := body["tokens"].([]interface{})
	require.Len(t, tokens, 1)
	entry := tokens[0].(map[string]interface{})
	assert.Equal(t, long[:20]+"...", entry["token_preview"])
	assert.NotContains(t, w.Body.String(), long)
}
