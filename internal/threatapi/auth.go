package threatapi

import (
	"context"
	"net/http"

	"github.com/threatlens/dashboard-api/internal/domain"
)

// Login authenticates against the upstream and returns the user together
// with the session cookies the upstream set.
func (c *Client) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, []*http.Cookie, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/login", nil, req)
	if err != nil {
		return nil, nil, err
	}
	user, err := DecodeOne[domain.User](resp.body, "user")
	if err != nil {
		return nil, nil, err
	}
	return user, resp.cookies, nil
}

// Logout ends the upstream session and returns any cookies the upstream cleared
func (c *Client) Logout(ctx context.Context) ([]*http.Cookie, error) {
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.cookies, nil
}

// Me resolves the user behind the forwarded session cookie
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.User](resp.body, "user")
}
