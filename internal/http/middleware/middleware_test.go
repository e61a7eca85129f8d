package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/auth"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/http/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.SecurityConfig{
		ContentTypeNosniff:    true,
		FrameOptions:          "DENY",
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}

	w := httptest.NewRecorder()
	middleware.SecurityHeaders(cfg)(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("X-XSS-Protection"), "empty values are not sent")
}

func TestCORS_DevelopmentEchoesOriginWithCredentials(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedMethods:   []string{"GET", "PATCH"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	handler := middleware.CORS(cfg, "development", zap.NewNop())(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/articles", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ProductionWithoutOriginsDenies(t *testing.T) {
	cfg := &config.CORSConfig{AllowedMethods: []string{"GET"}, AllowCredentials: true}
	handler := middleware.CORS(cfg, "production", zap.NewNop())(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins:   []string{"https://dashboard.example.com"},
		AllowedMethods:   []string{"GET"},
		AllowCredentials: true,
	}
	handler := middleware.CORS(cfg, "production", zap.NewNop())(okHandler)

	for origin, want := range map[string]string{
		"https://dashboard.example.com": "https://dashboard.example.com",
		"https://other.example.com":     "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, want, w.Header().Get("Access-Control-Allow-Origin"), origin)
	}
}

func TestRateLimiter_LimitByIP(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     2,
		RequestsPerMinuteAuth: 100,
		WhitelistIPs:          []string{"127.0.0.1"},
		WhitelistPaths:        []string{"/health", "/swagger/*"},
	}, zap.NewNop())
	handler := rl.LimitByIP(okHandler)

	do := func(path, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, do("/api/v1/articles", "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("/api/v1/articles", "10.0.0.1:1000").Code)
	limited := do("/api/v1/articles", "10.0.0.1:1000")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))

	var apiErr domain.APIError
	require.NoError(t, json.NewDecoder(limited.Body).Decode(&apiErr))
	assert.Equal(t, domain.ErrorTypeRateLimited, apiErr.Type)

	assert.Equal(t, http.StatusOK, do("/api/v1/articles", "10.0.0.2:1000").Code, "limits are per IP")
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do("/health", "10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusOK, do("/swagger/index.html", "10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusOK, do("/api/v1/articles", "127.0.0.1:1000").Code)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
	handler := rl.Limit(okHandler)
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_PerUser(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     100,
		RequestsPerMinuteAuth: 1,
	}, zap.NewNop())
	handler := rl.Limit(okHandler)

	do := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
		req.RemoteAddr = "10.0.0.9:1000"
		req = req.WithContext(auth.WithUserContext(context.Background(), &auth.UserContext{ID: userID}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("u1"))
	assert.Equal(t, http.StatusTooManyRequests, do("u1"))
	assert.Equal(t, http.StatusOK, do("u2"), "same IP, different user")
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := middleware.Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/explode", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrorTypeInternal)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
}

func TestLogging_RequestIDAndUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	inner := middleware.TrackUser(okHandler)
	handler := middleware.Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithUserContext(r.Context(), &auth.UserContext{ID: "u1", Role: domain.RoleAdmin})
		inner.ServeHTTP(w, r.WithContext(ctx))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, int64(http.StatusOK), fields["status_code"])
}

func TestLogging_GeneratesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	middleware.Logging(zap.NewNop())(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(middleware.RequestIDHeader), 36)
}
