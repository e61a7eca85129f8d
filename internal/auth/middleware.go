package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	sessions *SessionResolver
	apiKey   string
	logger   *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(sessions *SessionResolver, apiKey string, logger *zap.Logger) *Middleware {
	return &Middleware{sessions: sessions, apiKey: apiKey, logger: logger}
}

// Authenticate requires either the service API key or a valid session cookie.
// The resulting context carries the upstream credentials for the request.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if apiKey := r.Header.Get(threatapi.APIKeyHeader); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "Invalid API key")
				return
			}
			userCtx := systemUser()
			ctx := threatapi.AsService(WithUserContext(r.Context(), userCtx))
			m.logger.Debug("request authenticated",
				zap.String("path", r.URL.Path),
				zap.String("auth_type", "api_key"),
				zap.Duration("auth_duration", time.Since(start)),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		userCtx, err := m.sessions.Resolve(r.Context(), r)
		if err != nil {
			status, detail := http.StatusUnauthorized, "Authentication required"
			switch {
			case errors.Is(err, ErrExpiredToken):
				detail = "Session expired"
			case errors.Is(err, ErrNoSession):
			case errors.Is(err, ErrInvalidSession), errors.Is(err, ErrInvalidToken):
				detail = "Invalid session"
			default:
				status, detail = http.StatusBadGateway, "Unable to verify session"
			}
			m.logger.Info("authentication failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			errType := domain.ErrorTypeUnauthorized
			if status == http.StatusBadGateway {
				errType = domain.ErrorTypeUpstream
			}
			writeError(w, status, errType, detail)
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("path", r.URL.Path),
			zap.String("auth_type", "session"),
			zap.String("user_id", userCtx.ID),
			zap.String("role", string(userCtx.Role)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		ctx := WithUserContext(r.Context(), userCtx)
		ctx = threatapi.WithCookies(ctx, userCtx.Cookies)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin middleware ensures the user has the admin role or a valid API key
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "Authentication required")
			return
		}
		if !userCtx.IsAdmin() {
			writeError(w, http.StatusForbidden, domain.ErrorTypeForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}

func writeError(w http.ResponseWriter, status int, errType, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&domain.APIError{
		Type:   errType,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
