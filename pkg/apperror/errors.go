// Package apperror holds the error taxonomy shared by the registry, the
// dispatcher and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// Required builds the common "field is required" validation error.
func Required(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ConfigurationError reports missing or invalid credentials. Never retried.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// StorageError wraps a failure of the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DispatchError wraps a push gateway failure.
type DispatchError struct {
	Err error
	// Terminal is set when retrying cannot help (4xx class).
	Terminal bool
	// Deactivated is set when the target token was soft-deleted as a result.
	Deactivated bool
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ParseError reports a malformed inbound push payload.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed push payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// HTTPStatus maps an error from the taxonomy to a response status.
func HTTPStatus(err error) int {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Details returns the message that is passed through to API callers.
func Details(err error) string {
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) && dispatchErr.Err != nil {
		return dispatchErr.Err.Error()
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) && storageErr.Err != nil {
		return storageErr.Err.Error()
	}
	return err.Error()
}
