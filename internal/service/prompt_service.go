package service

import (
	"context"

	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

// PromptService manages analysis prompt templates
type PromptService struct {
	client *threatapi.Client
	logger *zap.Logger
}

func NewPromptService(client *threatapi.Client, logger *zap.Logger) *PromptService {
	return &PromptService{client: client, logger: logger}
}

func (s *PromptService) List(ctx context.Context) ([]domain.Prompt, error) {
	prompts, err := s.client.ListPrompts(ctx)
	if err != nil {
		s.logger.Error("failed to list prompts", zap.Error(err))
		return nil, fromUpstream(err)
	}
	return prompts, nil
}

func (s *PromptService) Create(ctx context.Context, req *domain.PromptRequest) (*domain.Prompt, error) {
	prompt, err := s.client.CreatePrompt(ctx, req)
	if err != nil {
		s.logger.Error("failed to create prompt", zap.String("name", req.Name), zap.Error(err))
		return nil, fromUpstream(err)
	}
	s.logger.Info("prompt created", zap.String("prompt_id", prompt.ID))
	return prompt, nil
}

func (s *PromptService) Update(ctx context.Context, id string, req *domain.PromptRequest) (*domain.Prompt, error) {
	prompt, err := s.client.UpdatePrompt(ctx, id, req)
	if err != nil {
		s.logger.Error("failed to update prompt", zap.String("prompt_id", id), zap.Error(err))
		return nil, fromUpstream(err)
	}
	return prompt, nil
}

func (s *PromptService) Delete(ctx context.Context, id string) error {
	if err := s.client.DeletePrompt(ctx, id); err != nil {
		s.logger.Error("failed to delete prompt", zap.String("prompt_id", id), zap.Error(err))
		return fromUpstream(err)
	}
	s.logger.Info("prompt deleted", zap.String("prompt_id", id))
	return nil
}
