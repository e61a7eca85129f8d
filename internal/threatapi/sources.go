package threatapi

import (
	"context"
	"net/http"

	"github.com/threatlens/dashboard-api/internal/domain"
)

// ListSources fetches all feed sources
func (c *Client) ListSources(ctx context.Context) ([]domain.Source, error) {
	resp, err := c.do(ctx, http.MethodGet, "/sources", nil, nil)
	if err != nil {
		return nil, err
	}
	return DecodeList[domain.Source](resp.body, "sources")
}

// CreateSource registers a new feed source
func (c *Client) CreateSource(ctx context.Context, req *domain.SourceRequest) (*domain.Source, error) {
	resp, err := c.do(ctx, http.MethodPost, "/sources", nil, req)
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.Source](resp.body, "source")
}

// UpdateSource replaces a feed source
func (c *Client) UpdateSource(ctx context.Context, id string, req *domain.SourceRequest) (*domain.Source, error) {
	resp, err := c.do(ctx, http.MethodPut, itemPath("/sources", id), nil, req)
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.Source](resp.body, "source")
}

// SetSourceActive enables or disables polling of a source
func (c *Client) SetSourceActive(ctx context.Context, id string, active bool) (*domain.Source, error) {
	resp, err := c.do(ctx, http.MethodPatch, itemPath("/sources", id), nil, map[string]bool{"isActive": active})
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.Source](resp.body, "source")
}

// DeleteSource removes a feed source
func (c *Client) DeleteSource(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath("/sources", id), nil, nil)
	return err
}
