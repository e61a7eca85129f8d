package threatapi

import (
	"context"
	"net/http"

	"github.com/threatlens/dashboard-api/internal/domain"
)

// ListUsers fetches all dashboard accounts (admin only upstream)
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/admin/users", nil, nil)
	if err != nil {
		return nil, err
	}
	return DecodeList[domain.User](resp.body, "users")
}

func (c *Client) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	resp, err := c.do(ctx, http.MethodPost, "/admin/users", nil, req)
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.User](resp.body, "user")
}

// UpdateUser changes a user's role and/or plan
func (c *Client) UpdateUser(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	resp, err := c.do(ctx, http.MethodPatch, itemPath("/admin/users", id), nil, req)
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.User](resp.body, "user")
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath("/admin/users", id), nil, nil)
	return err
}
