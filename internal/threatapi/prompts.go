package threatapi

import (
	"context"
	"net/http"

	"github.com/threatlens/dashboard-api/internal/domain"
)

func (c *Client) ListPrompts(ctx context.Context) ([]domain.Prompt, error) {
	resp, err := c.do(ctx, http.MethodGet, "/prompts", nil, nil)
	if err != nil {
		return nil, err
	}
	return DecodeList[domain.Prompt](resp.body, "prompts")
}

func (c *Client) CreatePrompt(ctx context.Context, req *domain.PromptRequest) (*domain.Prompt, error) {
	resp, err := c.do(ctx, http.MethodPost, "/prompts", nil, req)
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.Prompt](resp.body, "prompt")
}

func (c *Client) UpdatePrompt(ctx context.Context, id string, req *domain.PromptRequest) (*domain.Prompt, error) {
	resp, err := c.do(ctx, http.MethodPut, itemPath("/prompts", id), nil, req)
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.Prompt](resp.body, "prompt")
}

func (c *Client) DeletePrompt(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath("/prompts", id), nil, nil)
	return err
}
