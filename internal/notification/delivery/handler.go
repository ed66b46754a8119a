package delivery

import (
	"net/http"

	"pwa-push-backend/internal/notification/domain"
	"pwa-push-backend/internal/notification/usecase"
	"pwa-push-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// NotificationHandler exposes the dispatcher over HTTP
type NotificationHandler struct {
	dispatcher usecase.Dispatcher
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(dispatcher usecase.Dispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

// SendRequest is the body of POST /api/notifications/send.
// Data values may be any JSON scalar; they are sent as strings.
type SendRequest struct {
	Token string                 `json:"token"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data"`
}

// BroadcastRequest is the body of POST /api/notifications/broadcast
type BroadcastRequest struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data"`
}

// Send pushes a notification to a single device
// POST /api/notifications/send
func (h *NotificationHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.dispatcher.Send(c.Request.Context(), domain.SendRequest{
		Token: req.Token,
		Title: req.Title,
		Body:  req.Body,
		Data:  domain.StringifyData(req.Data),
	})
	if err != nil {
		respondError(c, err, "Failed to send notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Notification sent successfully",
		"messageId": result.MessageID,
		"title":     result.Title,
		"body":      result.Body,
	})
}

// Broadcast pushes a notification to every active device
// POST /api/notifications/broadcast
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	// an empty body is a valid broadcast with default text
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	result, err := h.dispatcher.Broadcast(c.Request.Context(), domain.BroadcastRequest{
		Title: req.Title,
		Body:  req.Body,
		Data:  domain.StringifyData(req.Data),
	})
	if err != nil {
		respondError(c, err, "Failed to broadcast notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"targeted":     result.Targeted,
		"successCount": result.SuccessCount,
		"failureCount": result.FailureCount,
		"deactivated":  result.Deactivated,
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
