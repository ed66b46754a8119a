package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response from the push backend
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" && e.Details != e.Message {
		return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// TokenSummary is one entry of the token listing
type TokenSummary struct {
	ID           string    `json:"id"`
	TokenPreview string    `json:"token_preview"`
	IsActive     bool      `json:"is_active"`
	UserAgent    *string   `json:"user_agent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SendParams is a single-device send
type SendParams struct {
	Token string            `json:"token"`
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// SendReply is the backend's answer to a send
type SendReply struct {
	MessageID string `json:"messageId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// BroadcastParams is a send to every active device
type BroadcastParams struct {
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// BroadcastReply is the backend's answer to a broadcast
type BroadcastReply struct {
	Targeted     int `json:"targeted"`
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
	Deactivated  int `json:"deactivated"`
}

// RegistryClient talks to the push backend's JSON API
type RegistryClient struct {
	baseURL    string
	httpClient *http.Client
	adminToken string
}

// ClientOption configures a RegistryClient
type ClientOption func(*RegistryClient)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(r *RegistryClient) { r.httpClient = c }
}

// WithAdminToken sends a bearer token on every request
func WithAdminToken(token string) ClientOption {
	return func(r *RegistryClient) { r.adminToken = token }
}

// NewRegistryClient creates a client for the API rooted at baseURL,
// e.g. http://localhost:8080/api
func NewRegistryClient(baseURL string, opts ...ClientOption) *RegistryClient {
	c := &RegistryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register reports a token and returns "inserted" or "updated"
func (c *RegistryClient) Register(ctx context.Context, token, userAgent string) (string, error) {
	payload := map[string]interface{}{"device_token": token}
	if userAgent != "" {
		payload["user_agent"] = userAgent
	}

	var out struct {
		Action string `json:"action"`
	}
	if err := c.do(ctx, http.MethodPost, "/tokens", payload, &out); err != nil {
		return "", err
	}
	return out.Action, nil
}

// Deactivate soft-deletes a token
func (c *RegistryClient) Deactivate(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/tokens", map[string]string{"device_token": token}, nil)
}

// List returns the active tokens, newest first
func (c *RegistryClient) List(ctx context.Context) ([]TokenSummary, error) {
	var out struct {
		Tokens []TokenSummary `json:"tokens"`
	}
	if err := c.do(ctx, http.MethodGet, "/tokens", nil, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

// Send pushes a notification to one device
func (c *RegistryClient) Send(ctx context.Context, params SendParams) (*SendReply, error) {
	var out SendReply
	if err := c.do(ctx, http.MethodPost, "/notifications/send", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Broadcast pushes a notification to every active device
func (c *RegistryClient) Broadcast(ctx context.Context, params BroadcastParams) (*BroadcastReply, error) {
	var out BroadcastReply
	if err := c.do(ctx, http.MethodPost, "/notifications/broadcast", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VAPIDKey fetches the public key clients need to obtain a token
func (c *RegistryClient) VAPIDKey(ctx context.Context) (string, error) {
	var out struct {
		PublicKey string `json:"publicKey"`
	}
	if err := c.do(ctx, http.MethodGet, "/push/vapid-key", nil, &out); err != nil {
		return "", err
	}
	return out.PublicKey, nil
}

func (c *RegistryClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
			apiErr.Details = envelope.Details
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
