package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"expensedash/internal/log"
)

// Failure categories. Every error returned by Client wraps exactly one of them.
var (
	ErrNetwork          = errors.New("network failure")
	ErrValidation       = errors.New("rejected by server validation")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrInvalidResponse  = errors.New("invalid response")
)

// APIError describes a failed round trip. Message is the server's own
// message field when the body carried one.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Kind       error
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the category sentinel and the underlying cause.
func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrUnexpectedStatus
	}
}

// ServerMessage returns the server-provided message carried by err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// ErrorType maps err to the error_type log field.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrNetwork):
		return log.ErrorTypeNetwork
	case errors.Is(err, ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, ErrUnauthorized):
		return log.ErrorTypeAuth
	case errors.Is(err, ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, ErrInvalidResponse), errors.Is(err, ErrUnexpectedStatus):
		return log.ErrorTypeResponse
	default:
		return log.ErrorTypeInternal
	}
}
