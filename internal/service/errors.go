package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/threatlens/dashboard-api/internal/threatapi"
)

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the user lacks the required role
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when the upstream reports a duplicate
	ErrConflict = errors.New("resource conflict")

	// ErrUpstream is returned when the threat API fails or answers with garbage
	ErrUpstream = errors.New("upstream unavailable")

	// ErrUserContextRequired is returned when user context is not available
	ErrUserContextRequired = errors.New("user context required")
)

// fromUpstream classifies a threat API error while keeping the original in the chain
func fromUpstream(err error) error {
	if err == nil {
		return nil
	}
	var sentinel error
	switch threatapi.StatusCode(err) {
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusConflict:
		sentinel = ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = ErrInvalidInput
	default:
		sentinel = ErrUpstream
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
