package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/feed"
	"github.com/threatlens/dashboard-api/internal/probe"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
)

// SourceService handles business logic for feed sources
type SourceService struct {
	client *threatapi.Client
	prober *probe.Prober
	logger *zap.Logger
}

func NewSourceService(client *threatapi.Client, prober *probe.Prober, logger *zap.Logger) *SourceService {
	return &SourceService{client: client, prober: prober, logger: logger}
}

// List returns sources after applying the management page filter and sort
func (s *SourceService) List(ctx context.Context, filter feed.SourceFilter, key feed.SourceSortKey) (*domain.SourceListResponse, error) {
	sources, err := s.client.ListSources(ctx)
	if err != nil {
		s.logger.Error("failed to list sources", zap.Error(err))
		return nil, fromUpstream(err)
	}
	out := feed.ApplySources(sources, filter, key)
	return &domain.SourceListResponse{Sources: out, Total: len(out)}, nil
}

// Create registers a new source upstream
func (s *SourceService) Create(ctx context.Context, req *domain.SourceRequest) (*domain.Source, error) {
	source, err := s.client.CreateSource(ctx, req)
	if err != nil {
		s.logger.Error("failed to create source", zap.String("url", req.URL), zap.Error(err))
		return nil, fromUpstream(err)
	}
	s.logger.Info("source created", zap.String("source_id", source.ID), zap.String("url", source.URL))
	return source, nil
}

// Update replaces a source's editable fields
func (s *SourceService) Update(ctx context.Context, id string, req *domain.SourceRequest) (*domain.Source, error) {
	source, err := s.client.UpdateSource(ctx, id, req)
	if err != nil {
		s.logger.Error("failed to update source", zap.String("source_id", id), zap.Error(err))
		return nil, fromUpstream(err)
	}
	return source, nil
}

// SetActive enables or disables polling of a source
func (s *SourceService) SetActive(ctx context.Context, id string, active bool) (*domain.Source, error) {
	source, err := s.client.SetSourceActive(ctx, id, active)
	if err != nil {
		s.logger.Error("failed to toggle source",
			zap.String("source_id", id),
			zap.Bool("active", active),
			zap.Error(err),
		)
		return nil, fromUpstream(err)
	}
	return source, nil
}

// Delete removes a source
func (s *SourceService) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteSource(ctx, id); err != nil {
		s.logger.Error("failed to delete source", zap.String("source_id", id), zap.Error(err))
		return fromUpstream(err)
	}
	s.logger.Info("source deleted", zap.String("source_id", id))
	return nil
}

// Preview fetches and parses a feed before it is registered
func (s *SourceService) Preview(ctx context.Context, url string) (*domain.FeedPreviewDTO, error) {
	preview, err := s.prober.Preview(ctx, url)
	if err != nil {
		if errors.Is(err, probe.ErrUnparseable) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if errors.Is(err, probe.ErrBlockedAddress) || errors.Is(err, probe.ErrUnsupportedURL) {
			s.logger.Warn("feed preview refused", zap.String("url", url), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		s.logger.Warn("feed preview failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return preview, nil
}
