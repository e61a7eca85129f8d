package threatapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMalformedResponse is returned when the upstream body is not valid JSON
	ErrMalformedResponse = errors.New("malformed upstream response")
	// ErrEmptyResponse is returned when a single-object endpoint yields no object
	ErrEmptyResponse = errors.New("upstream response contained no object")
)

// Error is a non-2xx upstream reply
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func newError(method, path string, status int, body []byte) *Error {
	return &Error{Method: method, Path: path, Status: status, Message: errorMessage(status, body)}
}

// errorMessage extracts "message" or "error" from a JSON error body
func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}

// StatusCode returns the upstream status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is an upstream 404
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
