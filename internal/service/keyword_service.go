package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

// KeywordService handles business logic for alert keywords
type KeywordService struct {
	client *threatapi.Client
	logger *zap.Logger
}

func NewKeywordService(client *threatapi.Client, logger *zap.Logger) *KeywordService {
	return &KeywordService{client: client, logger: logger}
}

// List returns all keywords
func (s *KeywordService) List(ctx context.Context) ([]domain.Keyword, error) {
	keywords, err := s.client.ListKeywords(ctx)
	if err != nil {
		s.logger.Error("failed to list keywords", zap.Error(err))
		return nil, fromUpstream(err)
	}
	return keywords, nil
}

// Create registers a new keyword
func (s *KeywordService) Create(ctx context.Context, req *domain.KeywordRequest) (*domain.Keyword, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	keyword, err := s.client.CreateKeyword(ctx, req)
	if err != nil {
		s.logger.Error("failed to create keyword", zap.String("name", req.Name), zap.Error(err))
		return nil, fromUpstream(err)
	}
	s.logger.Info("keyword created", zap.String("keyword_id", keyword.ID), zap.String("name", keyword.Name))
	return keyword, nil
}

// Update replaces a keyword's editable fields
func (s *KeywordService) Update(ctx context.Context, id string, req *domain.KeywordRequest) (*domain.Keyword, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	keyword, err := s.client.UpdateKeyword(ctx, id, req)
	if err != nil {
		s.logger.Error("failed to update keyword", zap.String("keyword_id", id), zap.Error(err))
		return nil, fromUpstream(err)
	}
	return keyword, nil
}

// SetActive enables or disables a keyword
func (s *KeywordService) SetActive(ctx context.Context, id string, active bool) (*domain.Keyword, error) {
	keyword, err := s.client.SetKeywordActive(ctx, id, active)
	if err != nil {
		s.logger.Error("failed to toggle keyword",
			zap.String("keyword_id", id),
			zap.Bool("active", active),
			zap.Error(err),
		)
		return nil, fromUpstream(err)
	}
	return keyword, nil
}

// Delete removes a keyword
func (s *KeywordService) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteKeyword(ctx, id); err != nil {
		s.logger.Error("failed to delete keyword", zap.String("keyword_id", id), zap.Error(err))
		return fromUpstream(err)
	}
	s.logger.Info("keyword deleted", zap.String("keyword_id", id))
	return nil
}
