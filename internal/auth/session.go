package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/threatlens/dashboard-api/internal/cache"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

var (
	ErrNoSession      = errors.New("missing session cookie")
	ErrInvalidSession = errors.New("session rejected by upstream")
)

// UserFetcher resolves the user behind the session cookies carried in ctx
type UserFetcher interface {
	Me(ctx context.Context) (*domain.User, error)
}

// SessionResolver turns a session cookie into a UserContext, either by
// verifying it locally as a JWT or by asking the upstream and caching the answer.
type SessionResolver struct {
	cookieName string
	jwt        *JWTValidator
	upstream   UserFetcher
	cache      cache.Cache
	ttl        time.Duration
	logger     *zap.Logger
}

func NewSessionResolver(cookieName string, jwtValidator *JWTValidator, upstream UserFetcher, c cache.Cache, ttl time.Duration, logger *zap.Logger) *SessionResolver {
	if cookieName == "" {
		cookieName = "session"
	}
	return &SessionResolver{
		cookieName: cookieName,
		jwt:        jwtValidator,
		upstream:   upstream,
		cache:      c,
		ttl:        ttl,
		logger:     logger,
	}
}

// CookieName is the session cookie forwarded to the upstream
func (s *SessionResolver) CookieName() string {
	return s.cookieName
}

// Resolve authenticates the request by its session cookie
func (s *SessionResolver) Resolve(ctx context.Context, r *http.Request) (*UserContext, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	forwarded := []*http.Cookie{{Name: cookie.Name, Value: cookie.Value}}

	if s.jwt != nil {
		user, err := s.jwt.ValidateToken(cookie.Value)
		if err != nil {
			return nil, err
		}
		user.Cookies = forwarded
		return user, nil
	}

	key := cache.HashKey(cookie.Value)
	if user, ok := s.cached(ctx, key); ok {
		user.Cookies = forwarded
		return user, nil
	}

	me, err := s.upstream.Me(threatapi.WithCookies(ctx, forwarded))
	if err != nil {
		switch threatapi.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	if raw, err := json.Marshal(me); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("Failed to cache session", zap.Error(err))
		}
	}

	user := fromUser(me)
	user.Cookies = forwarded
	return user, nil
}

func (s *SessionResolver) cached(ctx context.Context, key string) (*UserContext, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("Session cache lookup failed", zap.Error(err))
		}
		return nil, false
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, false
	}
	return fromUser(&user), true
}

// Forget drops a cached session, e.g. on logout
func (s *SessionResolver) Forget(ctx context.Context, cookieValue string) {
	if cookieValue == "" {
		return
	}
	if err := s.cache.Delete(ctx, cache.HashKey(cookieValue)); err != nil {
		s.logger.Warn("Failed to drop cached session", zap.Error(err))
	}
}
