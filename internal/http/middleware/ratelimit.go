package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/threatlens/dashboard-api/internal/auth"
	"github.com/threatlens/dashboard-api/internal/config"
	"github.com/threatlens/dashboard-api/internal/domain"
	"go.uber.org/zap"
)

// RateLimiter throttles dashboard clients. Anonymous traffic is keyed by
// client IP; once a session is resolved the key becomes the user id so
// analysts behind one NAT do not share a budget.
type RateLimiter struct {
	enabled bool
	logger  *zap.Logger

	anonymous     func(http.Handler) http.Handler
	authenticated func(http.Handler) http.Handler

	exemptIPs      map[string]struct{}
	exemptPaths    []string
	exemptPrefixes []string
}

func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		enabled:   cfg.Enabled,
		logger:    logger,
		exemptIPs: make(map[string]struct{}, len(cfg.WhitelistIPs)),
	}
	for _, ip := range cfg.WhitelistIPs {
		rl.exemptIPs[ip] = struct{}{}
	}
	for _, p := range cfg.WhitelistPaths {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			rl.exemptPrefixes = append(rl.exemptPrefixes, prefix)
			continue
		}
		rl.exemptPaths = append(rl.exemptPaths, p)
	}

	rl.anonymous = httprate.Limit(cfg.RequestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "ip:" + clientIP(r), nil
		}),
		httprate.WithLimitHandler(rl.reject),
	)
	rl.authenticated = httprate.Limit(cfg.RequestsPerMinuteAuth, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if user, ok := auth.FromContext(r.Context()); ok {
				return "user:" + user.ID, nil
			}
			return "ip:" + clientIP(r), nil
		}),
		httprate.WithLimitHandler(rl.reject),
	)

	if cfg.Enabled {
		logger.Info("Rate limiter initialized",
			zap.Int("anonymous_per_minute", cfg.RequestsPerMinute),
			zap.Int("user_per_minute", cfg.RequestsPerMinuteAuth),
			zap.Int("exempt_ips", len(rl.exemptIPs)),
			zap.Strings("exempt_paths", cfg.WhitelistPaths),
		)
	}
	return rl
}

// LimitByIP applies the anonymous budget. Mount it globally, before authentication.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	return rl.wrap(next, rl.anonymous(next))
}

// Limit applies the per-user budget. Mount it after authentication.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return rl.wrap(next, rl.authenticated(next))
}

func (rl *RateLimiter) wrap(next, limited http.Handler) http.Handler {
	if !rl.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) exempt(r *http.Request) bool {
	if _, ok := rl.exemptIPs[clientIP(r)]; ok {
		return true
	}
	path := r.URL.Path
	for _, p := range rl.exemptPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range rl.exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("client_ip", clientIP(r)),
	}
	if user, ok := auth.FromContext(r.Context()); ok {
		fields = append(fields, zap.String("user_id", user.ID))
	}
	rl.logger.Warn("rate limit exceeded", fields...)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   domain.ErrorTypeRateLimited,
		Title:  http.StatusText(http.StatusTooManyRequests),
		Status: http.StatusTooManyRequests,
		Detail: "Too many requests, slow down and retry in a minute",
	})
}
