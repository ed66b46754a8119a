package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryClientRoundTrip(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/tokens":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "tok", body["device_token"])
			assert.Equal(t, "Chrome", body["user_agent"])
			_, _ = w.Write([]byte(`{"success":true,"action":"inserted"}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/tokens":
			_, _ = w.Write([]byte(`{"success":true}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/tokens":
			assert.Equal(t, "Bearer admin-jwt", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"success":true,"count":1,"tokens":[{"id":"1","token_preview":"abc...","is_active":true}]}`))
		case r.URL.Path == "/api/notifications/send":
			_, _ = w.Write([]byte(`{"success":true,"messageId":"m-1","title":"Test Notification","body":"This is a test notification"}`))
		case r.URL.Path == "/api/push/vapid-key":
			_, _ = w.Write([]byte(`{"publicKey":"BNc2y"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewRegistryClient(srv.URL+"/api/", WithAdminToken("admin-jwt"))

	action, err := c.Register(ctx, "tok", "Chrome")
	require.NoError(t, err)
	assert.Equal(t, "inserted", action)

	require.NoError(t, c.Deactivate(ctx, "tok"))

	tokens, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "abc...", tokens[0].TokenPreview)

	reply, err := c.Send(ctx, SendParams{Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", reply.MessageID)

	key, err := c.VAPIDKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BNc2y", key)

	assert.Equal(t, []string{
		"POST /api/tokens",
		"DELETE /api/tokens",
		"GET /api/tokens",
		"POST /api/notifications/send",
		"GET /api/push/vapid-key",
	}, seen)
}

func TestRegistryClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Failed to send notification","details":"Requested entity was not found."}`))
	}))
	defer srv.Close()

	_, err := NewRegistryClient(srv.URL).Send(context.Background(), SendParams{Token: "tok"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Failed to send notification", apiErr.Message)
	assert.Equal(t, "Requested entity was not found.", apiErr.Details)
}
