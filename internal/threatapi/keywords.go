package threatapi

import (
	"context"
	"net/http"

	"github.com/threatlens/dashboard-api/internal/domain"
)

// ListKeywords fetches all watch keywords
func (c *Client) ListKeywords(ctx context.Context) ([]domain.Keyword, error) {
	resp, err := c.do(ctx, http.MethodGet, "/keywords", nil, nil)
	if err != nil {
		return nil, err
	}
	return DecodeList[domain.Keyword](resp.body, "keywords")
}

// CreateKeyword registers a new keyword
func (c *Client) CreateKeyword(ctx context.Context, req *domain.KeywordRequest) (*domain.Keyword, error) {
	resp, err := c.do(ctx, http.MethodPost, "/keywords", nil, req)
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.Keyword](resp.body, "keyword")
}

// UpdateKeyword replaces a keyword
func (c *Client) UpdateKeyword(ctx context.Context, id string, req *domain.KeywordRequest) (*domain.Keyword, error) {
	resp, err := c.do(ctx, http.MethodPut, itemPath("/keywords", id), nil, req)
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.Keyword](resp.body, "keyword")
}

// SetKeywordActive enables or disables a keyword
func (c *Client) SetKeywordActive(ctx context.Context, id string, active bool) (*domain.Keyword, error) {
	resp, err := c.do(ctx, http.MethodPatch, itemPath("/keywords", id), nil, map[string]bool{"active": active})
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.Keyword](resp.body, "keyword")
}

// DeleteKeyword removes a keyword
func (c *Client) DeleteKeyword(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath("/keywords", id), nil, nil)
	return err
}
