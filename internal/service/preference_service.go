package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/feed"
	"github.com/threatlens/dashboard-api/internal/repository"
	"go.uber.org/zap"
)

// PreferenceService reads and writes per-user dashboard defaults
type PreferenceService struct {
	repo   *repository.PreferenceRepository
	logger *zap.Logger
}

func NewPreferenceService(repo *repository.PreferenceRepository, logger *zap.Logger) *PreferenceService {
	return &PreferenceService{repo: repo, logger: logger}
}

// Get returns the stored preferences. A store failure yields the defaults.
func (s *PreferenceService) Get(ctx context.Context) (*domain.Preference, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	pref, err := s.repo.Get(ctx, user.ID)
	if err != nil {
		s.logger.Warn("failed to load preferences, using defaults", zap.String("user_id", user.ID), zap.Error(err))
		return repository.DefaultPreference(user.ID), nil
	}
	return pref, nil
}

// Update merges the set fields of req into the stored preferences
func (s *PreferenceService) Update(ctx context.Context, req *domain.PreferenceRequest) (*domain.Preference, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	pref, err := s.repo.Get(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	if req.DarkMode != nil {
		pref.DarkMode = *req.DarkMode
	}
	if req.HideRead != nil {
		pref.HideRead = *req.HideRead
	}
	if req.DefaultSort != "" {
		key, err := feed.ParseSortKey(req.DefaultSort)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		pref.DefaultSort = string(key)
	}
	if req.DefaultWindow != "" {
		if _, err := feed.ParseWindow(req.DefaultWindow); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		pref.DefaultWindow = strings.ToLower(strings.TrimSpace(req.DefaultWindow))
	}

	if err := s.repo.Save(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	s.logger.Debug("preferences updated", zap.String("user_id", user.ID))
	return pref, nil
}
