package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrNoRefreshToken    = errors.New("no refresh token stored")
	ErrNormalization     = errors.New("user payload normalization failed")
	ErrUnknownResource   = errors.New("unknown resource")
	ErrUnexpectedPayload = errors.New("unexpected response payload")
)

// APIError is a non-2xx response from a backend
type APIError struct {
	StatusCode int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Is maps auth statuses onto the sentinel errors
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

var authErrorMarkers = []string{"invalid token", "token not valid", "token is invalid", "token has expired", "unauthorized"}

// IsAuthError reports whether err looks like an authentication failure:
// a 401/403 response or a message mentioning an invalid token.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrTokenExpired) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range authErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
