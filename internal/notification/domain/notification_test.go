package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"pwa-push-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveClickURL(t *testing.T) {
	const fallback = "https://app.example/"

	assert.Equal(t, "https://app.example/x", ResolveClickURL(map[string]string{
		"click_action": "https://app.example/x",
		"url":          "https://app.example/y",
	}, fallback))
	assert.Equal(t, "https://app.example/y", ResolveClickURL(map[string]string{"url": "https://app.example/y"}, fallback))
	assert.Equal(t, fallback, ResolveClickURL(nil, fallback))
}

func TestWithDefaults(t *testing.T) {
	title, body := WithDefaults("", "  ")
	assert.Equal(t, DefaultTitle, title)
	assert.Equal(t, DefaultBody, body)

	title, body = WithDefaults("Hello", "World")
	assert.Equal(t, "Hello", title)
	assert.Equal(t, "World", body)
}

func TestStringifyData(t *testing.T) {
	got := StringifyData(map[string]interface{}{
		"s":    "text",
		"n":    float64(42),
		"f":    1.5,
		"b":    true,
		"obj":  map[string]interface{}{"a": float64(1)},
		"skip": nil,
	})

	assert.Equal(t, map[string]string{
		"s":   "text",
		"n":   "42",
		"f":   "1.5",
		"b":   "true",
		"obj": `{"a":1}`,
	}, got)
	assert.Nil(t, StringifyData(nil))
}

func TestStringifyDataKeepsDecodedNumbersExact(t *testing.T) {
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"orderId":12345678901,"price":0.0000001,"qty":-3}`), &raw))

	assert.Equal(t, map[string]string{
		"orderId": "12345678901",
		"price":   "0.0000001",
		"qty":     "-3",
	}, StringifyData(raw))
}

func TestValidateData(t *testing.T) {
	assert.NoError(t, ValidateData("T", "B", map[string]string{"url": "https://app.example/x", "orderId": "7"}))
	assert.NoError(t, ValidateData("T", "B", nil))

	for _, key := range []string{"from", "message_type", "notification", "google.c.a.e", "gcm.n.e", "Google_sent"} {
		err := ValidateData("T", "B", map[string]string{key: "x"})
		var validationErr *apperror.ValidationError
		require.True(t, errors.As(err, &validationErr), "key %q", key)
		assert.Equal(t, "data", validationErr.Field)
	}

	err := ValidateData("T", "B", map[string]string{"blob": strings.Repeat("x", MaxPayloadBytes)})
	var validationErr *apperror.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Contains(t, err.Error(), "limit is 4096")
}
