package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cause := errors.New("connection refused")

	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Required("device_token", "Device token is required")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(fmt.Errorf("register: %w", &ValidationError{Field: "token"})))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(&StorageError{Op: "insert", Err: cause}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(&ConfigurationError{Message: "no credentials"}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(&DispatchError{Err: cause}))
}

func TestUnwrapChains(t *testing.T) {
	cause := errors.New("boom")

	assert.ErrorIs(t, &StorageError{Op: "update", Err: cause}, cause)
	assert.ErrorIs(t, &DispatchError{Err: cause}, cause)
	assert.ErrorIs(t, &ConfigurationError{Message: "bad", Err: cause}, cause)
	assert.ErrorIs(t, &ParseError{Err: cause}, cause)
}

func TestDetailsPassesDependencyMessageThrough(t *testing.T) {
	cause := errors.New("requested entity was not found")

	assert.Equal(t, "requested entity was not found", Details(&DispatchError{Err: cause}))
	assert.Equal(t, "requested entity was not found", Details(&StorageError{Op: "select", Err: cause}))
	assert.Equal(t, "token is required", Details(&ValidationError{Field: "token"}))
}
