package delivery

import (
	"net/http"
	"time"

	"pwa-push-backend/internal/device/domain"
	"pwa-push-backend/internal/device/usecase"
	"pwa-push-backend/pkg/apperror"
	"pwa-push-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TokenHandler serves the device token registry over HTTP
type TokenHandler struct {
	registry usecase.Registry
}

// NewTokenHandler creates a new TokenHandler
func NewTokenHandler(registry usecase.Registry) *TokenHandler {
	return &TokenHandler{registry: registry}
}

// RegisterTokenRequest is the body of POST /api/tokens
type RegisterTokenRequest struct {
	DeviceToken string  `json:"device_token"`
	UserAgent   *string `json:"user_agent"`
}

// DeactivateTokenRequest is the body of DELETE /api/tokens
type DeactivateTokenRequest struct {
	DeviceToken string `json:"device_token"`
}

// TokenResponse is one entry of GET /api/tokens
type TokenResponse struct {
	ID           string    `json:"id"`
	TokenPreview string    `json:"token_preview"`
	IsActive     bool      `json:"is_active"`
	UserAgent    *string   `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterToken saves or reactivates a device token
// POST /api/tokens
func (h *TokenHandler) RegisterToken(c *gin.Context) {
	var req RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "details": err.Error()})
		return
	}

	action, err := h.registry.Register(c.Request.Context(), req.DeviceToken, req.UserAgent)
	if err != nil {
		respondError(c, err, "Failed to save token")
		return
	}

	message := "Token saved successfully"
	if action == domain.ActionUpdated {
		message = "Token updated successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"action":  action,
	})
}

// DeactivateToken soft-deletes a device token
// DELETE /api/tokens
func (h *TokenHandler) DeactivateToken(c *gin.Context) {
	var req DeactivateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "details": err.Error()})
		return
	}

	if _, err := h.registry.Deactivate(c.Request.Context(), req.DeviceToken); err != nil {
		respondError(c, err, "Failed to deactivate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Token deactivated successfully",
	})
}

// ListTokens returns the active tokens, newest first
// GET /api/tokens
func (h *TokenHandler) ListTokens(c *gin.Context) {
	tokens, err := h.registry.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch tokens")
		return
	}

	response := make([]TokenResponse, len(tokens))
	for i, t := range tokens {
		response[i] = TokenResponse{
			ID:           t.ID,
			TokenPreview: logger.MaskToken(t.Token),
			IsActive:     t.Active,
			UserAgent:    t.UserAgent,
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tokens":  response,
		"count":   len(response),
	})
}

func respondError(c *gin.Context, err error, fallback string) {
	status := apperror.HTTPStatus(err)
	message := fallback
	if status == http.StatusBadRequest {
		message = err.Error()
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
		"details": apperror.Details(err),
	})
}
