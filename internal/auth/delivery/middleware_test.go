package delivery

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pwa-push-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guarded(auth usecase.AdminAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/tokens", AdminMiddleware(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin": c.GetString("admin")})
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/tokens", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminMiddlewareDisabled(t *testing.T) {
	r := guarded(usecase.NewAdminAuth(""))
	assert.Equal(t, http.StatusOK, get(r, "").Code)
}

func TestAdminMiddleware(t *testing.T) {
	auth := usecase.NewAdminAuth("s3cret")
	r := guarded(auth)

	token, err := auth.IssueToken("ops", time.Hour)
	require.NoError(t, err)

	w := get(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin":"ops"`)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer nonsense").Code)
}

func TestAdminMiddlewareRejectsForeignTokens(t *testing.T) {
	auth := usecase.NewAdminAuth("s3cret")
	r := guarded(auth)

	other, err := usecase.NewAdminAuth("another").IssueToken("ops", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+other).Code)

	expired, err := auth.IssueToken("ops", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+expired).Code)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+noRole).Code)
}
