package threatapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/threatlens/dashboard-api/internal/domain"
)

// ArticleQuery is passed through to the upstream as query parameters
type ArticleQuery struct {
	Limit  int
	Offset int
	Search string
}

func (q ArticleQuery) values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// ListArticles fetches the article feed
func (c *Client) ListArticles(ctx context.Context, q ArticleQuery) ([]domain.Article, error) {
	resp, err := c.do(ctx, http.MethodGet, "/articles", q.values(), nil)
	if err != nil {
		return nil, err
	}
	return DecodeList[domain.Article](resp.body, "articles")
}

// ListAlerts fetches articles that carry at least one alert match
func (c *Client) ListAlerts(ctx context.Context, q ArticleQuery) ([]domain.Article, error) {
	resp, err := c.do(ctx, http.MethodGet, "/articles/alerts", q.values(), nil)
	if err != nil {
		return nil, err
	}
	return DecodeList[domain.Article](resp.body, "articles")
}

// GetArticle fetches a single article
func (c *Client) GetArticle(ctx context.Context, id string) (*domain.Article, error) {
	resp, err := c.do(ctx, http.MethodGet, itemPath("/articles", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return DecodeOne[domain.Article](resp.body, "article")
}

// DeleteArticle removes an article upstream
func (c *Client) DeleteArticle(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath("/articles", id), nil, nil)
	return err
}

// SetArticleRead mirrors the read flag
func (c *Client) SetArticleRead(ctx context.Context, id string, read bool) error {
	return c.patchFlag(ctx, id, "read", map[string]bool{"read": read})
}

// SetArticleSaved mirrors the saved flag
func (c *Client) SetArticleSaved(ctx context.Context, id string, saved bool) error {
	return c.patchFlag(ctx, id, "saved", map[string]bool{"saved": saved})
}

// SetArticleSpam mirrors the spam flag
func (c *Client) SetArticleSpam(ctx context.Context, id string, spam bool) error {
	return c.patchFlag(ctx, id, "spam", map[string]bool{"isSpam": spam})
}

func (c *Client) patchFlag(ctx context.Context, id, flag string, payload map[string]bool) error {
	if id == "" {
		return fmt.Errorf("article id is required")
	}
	_, err := c.do(ctx, http.MethodPatch, itemPath("/articles", id)+"/"+flag, nil, payload)
	return err
}
