package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pwa-push-backend/pkg/apperror"
)

// Fallback text used when a send request leaves title or body empty
const (
	DefaultTitle = "Test Notification"
	DefaultBody  = "This is a test notification"
)

// SendRequest is one notification aimed at a single device token
type SendRequest struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// SendResult is the gateway's acknowledgement of a send
type SendResult struct {
	MessageID string
	Title     string
	Body      string
}

// BroadcastRequest fans the same notification out to every active token
type BroadcastRequest struct {
	Title string
	Body  string
	Data  map[string]string
}

// BroadcastResult summarizes a broadcast
type BroadcastResult struct {
	Targeted     int
	SuccessCount int
	FailureCount int
	Deactivated  int
}

// MaxPayloadBytes is the gateway's limit on title, body and data combined
const MaxPayloadBytes = 4096

var reservedDataKeys = map[string]bool{
	"from":         true,
	"notification": true,
	"message_type": true,
}

// ValidateData rejects data the gateway would refuse with INVALID_ARGUMENT,
// which is otherwise indistinguishable from a bad token.
func ValidateData(title, body string, data map[string]string) error {
	size := len(title) + len(body)
	for k, v := range data {
		lower := strings.ToLower(k)
		if reservedDataKeys[lower] || strings.HasPrefix(lower, "google") || strings.HasPrefix(lower, "gcm") {
			return &apperror.ValidationError{Field: "data", Message: fmt.Sprintf("data key %q is reserved", k)}
		}
		size += len(k) + len(v)
	}
	if size > MaxPayloadBytes {
		return &apperror.ValidationError{Field: "data", Message: fmt.Sprintf("payload is %d bytes, limit is %d", size, MaxPayloadBytes)}
	}
	return nil
}

// WithDefaults fills empty title and body with the fallback text
func WithDefaults(title, body string) (string, string) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	if strings.TrimSpace(body) == "" {
		body = DefaultBody
	}
	return title, body
}

// ResolveClickURL picks the click target: click_action, then url, then fallback
func ResolveClickURL(data map[string]string, fallback string) string {
	if v := data["click_action"]; v != "" {
		return v
	}
	if v := data["url"]; v != "" {
		return v
	}
	return fallback
}

// StringifyData flattens a decoded JSON object into the string map the
// gateway accepts. Strings pass through; other values are JSON encoded.
func StringifyData(raw map[string]interface{}) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool, int, int64:
			out[k] = fmt.Sprint(val)
		default:
			encoded, err := json.Marshal(val)
			if err != nil {
				out[k] = fmt.Sprint(val)
				continue
			}
			out[k] = string(encoded)
		}
	}
	return out
}
