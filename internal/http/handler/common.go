package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/probe"
	"github.com/threatlens/dashboard-api/internal/service"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

var validate = validator.New()

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// decodeJSON reads the request body into dst. An empty body is accepted
// when allowEmpty is set and leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return err
	}
	return nil
}

// decodeAndValidate decodes a required JSON body and runs struct validation.
// It writes the error response itself and reports whether the caller may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(r, dst, false); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// respondValidationError sends a standardized validation error response with specific field messages
func respondValidationError(w http.ResponseWriter, err error) {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			errs[toJSONFieldName(fe.Field())] = formatValidationError(fe)
		}
	}

	respondJSON(w, http.StatusBadRequest, domain.APIError{
		Type:   domain.ErrorTypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
		Detail: "One or more fields failed validation",
		Errors: errs,
	})
}

// formatValidationError creates a human-readable validation error message
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", toJSONFieldName(fe.Field()))
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "url":
		return "Must be a valid URL"
	default:
		return domain.GetValidationMessage(fe.Tag())
	}
}

// toJSONFieldName converts a Go struct field name to its JSON equivalent (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// respondWithError sends a standardized JSON error response
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, domain.APIError{
		Type:   getErrorType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: message,
	})
}

// getErrorType returns the appropriate error type for an HTTP status code
func getErrorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.ErrorTypeBadRequest
	case http.StatusUnauthorized:
		return domain.ErrorTypeUnauthorized
	case http.StatusForbidden:
		return domain.ErrorTypeForbidden
	case http.StatusNotFound:
		return domain.ErrorTypeNotFound
	case http.StatusConflict:
		return domain.ErrorTypeConflict
	case http.StatusUnprocessableEntity:
		return domain.ErrorTypeUnprocessable
	case http.StatusBadGateway:
		return domain.ErrorTypeUpstream
	default:
		return domain.ErrorTypeInternal
	}
}

// respondServiceError maps a service error to a response. Client errors
// echo the upstream message; server errors are logged and hidden.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	detail := upstreamMessage(err)

	switch {
	case errors.Is(err, service.ErrUserContextRequired), errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, orDefault(detail, "Authentication required"))
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, orDefault(detail, "Access denied"))
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, orDefault(detail, "Resource not found"))
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusConflict, orDefault(detail, "Resource already exists"))
	case errors.Is(err, probe.ErrUnparseable):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, orDefault(detail, inputMessage(err)))
	case errors.Is(err, service.ErrUpstream):
		logger.Error("upstream failure", zap.String("action", action), zap.Error(err))
		respondWithError(w, http.StatusBadGateway, "Threat API unavailable")
	default:
		logger.Error("request failed", zap.String("action", action), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func upstreamMessage(err error) string {
	var apiErr *threatapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// inputMessage strips the sentinel prefix from a wrapped ErrInvalidInput
func inputMessage(err error) string {
	return strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
