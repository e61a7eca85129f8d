package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/threatlens/dashboard-api/internal/auth"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

// AuthService passes login and logout through to the upstream
type AuthService struct {
	client   *threatapi.Client
	sessions *auth.SessionResolver
	logger   *zap.Logger
}

func NewAuthService(client *threatapi.Client, sessions *auth.SessionResolver, logger *zap.Logger) *AuthService {
	return &AuthService{client: client, sessions: sessions, logger: logger}
}

// Login authenticates against the upstream and returns the cookies to relay
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, []*http.Cookie, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user, cookies, err := s.client.Login(ctx, req)
	if err != nil {
		s.logger.Info("login failed", zap.String("email", req.Email), zap.Error(err))
		return nil, nil, fromUpstream(err)
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, cookies, nil
}

// Logout ends the upstream session and drops the cached resolution.
// The local cache is cleared even when the upstream call fails.
func (s *AuthService) Logout(ctx context.Context, cookieValue string) ([]*http.Cookie, error) {
	if cookieValue != "" {
		s.sessions.Forget(ctx, cookieValue)
	}
	cookies, err := s.client.Logout(ctx)
	if err != nil {
		s.logger.Warn("upstream logout failed", zap.Error(err))
		return nil, fromUpstream(err)
	}
	return cookies, nil
}

// Me returns the user resolved for the current request
func (s *AuthService) Me(ctx context.Context) (*domain.User, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, ErrUnauthorized
	}
	u := user.User()
	return &u, nil
}
