package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/threatlens/dashboard-api/internal/auth"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/feed"
	"github.com/threatlens/dashboard-api/internal/repository"
	"github.com/threatlens/dashboard-api/internal/storage"
	"github.com/threatlens/dashboard-api/internal/threatapi"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const exportContentType = "application/json"

// ListParams describes one article list request
type ListParams struct {
	Query  threatapi.ArticleQuery
	Filter feed.Filter
	Sort   feed.SortKey
}

// ArticleService merges upstream articles with per-user state and runs the feed pipeline
type ArticleService struct {
	client    *threatapi.Client
	states    *repository.ArticleStateRepository
	exports   *repository.ExportRepository
	storage   storage.Storage
	sanitizer *bluemonday.Policy
	now       func() time.Time
	logger    *zap.Logger
}

func NewArticleService(
	client *threatapi.Client,
	states *repository.ArticleStateRepository,
	exports *repository.ExportRepository,
	store storage.Storage,
	logger *zap.Logger,
) *ArticleService {
	return &ArticleService{
		client:    client,
		states:    states,
		exports:   exports,
		storage:   store,
		sanitizer: bluemonday.UGCPolicy(),
		now:       time.Now,
		logger:    logger,
	}
}

func currentUser(ctx context.Context) (*auth.UserContext, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}
	return user, nil
}

// List returns the filtered and sorted article feed for the current user
func (s *ArticleService) List(ctx context.Context, p ListParams) (*domain.ArticleListResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	articles, err := s.client.ListArticles(ctx, p.Query)
	if err != nil {
		s.logger.Error("failed to fetch articles", zap.String("user_id", user.ID), zap.Error(err))
		return nil, fromUpstream(err)
	}
	return s.pipeline(ctx, user, articles, p), nil
}

// ListAlerts returns articles with keyword hits, through the same pipeline
func (s *ArticleService) ListAlerts(ctx context.Context, p ListParams) (*domain.ArticleListResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	articles, err := s.client.ListAlerts(ctx, p.Query)
	if err != nil {
		s.logger.Error("failed to fetch alerts", zap.String("user_id", user.ID), zap.Error(err))
		return nil, fromUpstream(err)
	}
	return s.pipeline(ctx, user, articles, p), nil
}

// ListSaved returns the user's saved articles: those saved locally plus the
// feed articles the upstream reports saved and the user has not unsaved.
// Locally saved ids missing from the feed page are fetched one by one; ids
// the upstream no longer knows are skipped.
func (s *ArticleService) ListSaved(ctx context.Context, p ListParams) (*domain.ArticleListResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	savedIDs, err := s.states.SavedIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved articles: %w", err)
	}

	articles, err := s.client.ListArticles(ctx, p.Query)
	if err != nil {
		s.logger.Error("failed to fetch articles", zap.String("user_id", user.ID), zap.Error(err))
		return nil, fromUpstream(err)
	}

	byID := make(map[string]domain.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}

	saved := make([]domain.Article, 0, len(savedIDs))
	seen := make(map[string]bool, len(savedIDs))
	for _, id := range savedIDs {
		seen[id] = true
		if a, ok := byID[id]; ok {
			saved = append(saved, a)
			continue
		}
		a, err := s.client.GetArticle(ctx, id)
		if err != nil {
			s.logger.Warn("saved article unavailable upstream", zap.String("article_id", id), zap.Error(err))
			continue
		}
		saved = append(saved, *a)
	}

	local, err := s.states.SavedMap(ctx, user.ID)
	if err != nil {
		s.logger.Warn("failed to load saved flags", zap.String("user_id", user.ID), zap.Error(err))
	}
	for _, a := range articles {
		if !a.Saved || seen[a.ID] {
			continue
		}
		if v, ok := local[a.ID]; ok && !v {
			continue
		}
		saved = append(saved, a)
	}
	return s.pipeline(ctx, user, saved, p), nil
}

// pipeline overlays local state and applies filter and sort. A state store
// failure degrades to the upstream flags.
func (s *ArticleService) pipeline(ctx context.Context, user *auth.UserContext, articles []domain.Article, p ListParams) *domain.ArticleListResponse {
	states, err := s.states.ListByUser(ctx, user.ID)
	if err != nil {
		s.logger.Warn("failed to load article state, using upstream flags", zap.String("user_id", user.ID), zap.Error(err))
	}

	merged := mergeState(articles, states)
	read := make(map[string]bool, len(merged))
	for _, a := range merged {
		if a.Read {
			read[a.ID] = true
		}
	}

	out := feed.Run(merged, p.Filter, p.Sort, read, s.now())
	return &domain.ArticleListResponse{Articles: out, Total: len(out)}
}

// mergeState returns copies of articles with the flags the user set locally
// applied. Unset flags keep the upstream value.
func mergeState(articles []domain.Article, states []domain.ArticleState) []domain.Article {
	byID := make(map[string]domain.ArticleState, len(states))
	for _, st := range states {
		byID[st.ArticleID] = st
	}
	out := make([]domain.Article, len(articles))
	for i, a := range articles {
		if st, ok := byID[a.ID]; ok {
			if st.Read != nil {
				a.Read = *st.Read
			}
			if st.Saved != nil {
				a.Saved = *st.Saved
			}
			if st.ViewedAt != nil {
				a.ViewedAt = st.ViewedAt
			}
		}
		if a.Industries == nil {
			a.Industries = []string{}
		}
		if a.AlertMatches == nil {
			a.AlertMatches = []domain.AlertMatch{}
		}
		out[i] = a
	}
	return out
}

// Get returns one article with sanitised HTML and records the view
func (s *ArticleService) Get(ctx context.Context, id string) (*domain.Article, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	article, err := s.client.GetArticle(ctx, id)
	if err != nil {
		if !threatapi.IsNotFound(err) {
			s.logger.Error("failed to fetch article", zap.String("article_id", id), zap.Error(err))
		}
		return nil, fromUpstream(err)
	}

	article.Content = s.sanitizer.Sanitize(article.Content)
	article.Summary = s.sanitizer.Sanitize(article.Summary)

	now := s.now().UTC()
	if err := s.states.MarkViewed(ctx, user.ID, article.ID, now); err != nil {
		s.logger.Warn("failed to mark article viewed", zap.String("article_id", id), zap.Error(err))
	}

	state, err := s.states.Get(ctx, user.ID, article.ID)
	if err != nil {
		s.logger.Warn("failed to load article state", zap.String("article_id", id), zap.Error(err))
		return article, nil
	}
	merged := mergeState([]domain.Article{*article}, []domain.ArticleState{*state})[0]
	merged.ViewedAt = &now
	return &merged, nil
}

// SetRead stores the read flag locally and mirrors it upstream. value nil toggles.
func (s *ArticleService) SetRead(ctx context.Context, id string, value *bool) (*domain.ArticleStateDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	next, err := s.resolveToggle(ctx, user.ID, id, value,
		func(st *domain.ArticleState) *bool { return st.Read },
		func(a *domain.Article) bool { return a.Read },
	)
	if err != nil {
		return nil, err
	}

	state, err := s.states.SetRead(ctx, user.ID, id, next)
	if err != nil {
		return nil, fmt.Errorf("failed to store read state: %w", err)
	}
	mirrorErr := s.client.SetArticleRead(ctx, id, next)
	return s.recordMirror(ctx, user.ID, state, "read", mirrorErr), nil
}

// SetSaved stores the saved flag locally and mirrors it upstream. value nil toggles.
func (s *ArticleService) SetSaved(ctx context.Context, id string, value *bool) (*domain.ArticleStateDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	next, err := s.resolveToggle(ctx, user.ID, id, value,
		func(st *domain.ArticleState) *bool { return st.Saved },
		func(a *domain.Article) bool { return a.Saved },
	)
	if err != nil {
		return nil, err
	}

	state, err := s.states.SetSaved(ctx, user.ID, id, next)
	if err != nil {
		return nil, fmt.Errorf("failed to store saved state: %w", err)
	}
	mirrorErr := s.client.SetArticleSaved(ctx, id, next)
	return s.recordMirror(ctx, user.ID, state, "saved", mirrorErr), nil
}

// SetSpam mirrors the spam flag upstream. The flag lives upstream only, so a
// toggle reads the current value from the article first.
func (s *ArticleService) SetSpam(ctx context.Context, id string, value *bool) (*domain.ArticleStateDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	var next bool
	if value != nil {
		next = *value
	} else {
		article, err := s.client.GetArticle(ctx, id)
		if err != nil {
			return nil, fromUpstream(err)
		}
		next = !article.IsSpam
	}

	state, err := s.states.Get(ctx, user.ID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load article state: %w", err)
	}
	mirrorErr := s.client.SetArticleSpam(ctx, id, next)
	dto := s.recordMirror(ctx, user.ID, state, "spam", mirrorErr)
	dto.Spam = &next
	return dto, nil
}

// resolveToggle returns the value to store. A toggle flips the local flag
// when the user has set one, otherwise the upstream flag.
func (s *ArticleService) resolveToggle(
	ctx context.Context,
	userID, articleID string,
	value *bool,
	local func(*domain.ArticleState) *bool,
	upstream func(*domain.Article) bool,
) (bool, error) {
	if articleID == "" {
		return false, fmt.Errorf("%w: article id is required", ErrInvalidInput)
	}
	if value != nil {
		return *value, nil
	}
	state, err := s.states.Get(ctx, userID, articleID)
	if err != nil {
		return false, fmt.Errorf("failed to load article state: %w", err)
	}
	if current := local(state); current != nil {
		return !*current, nil
	}
	article, err := s.client.GetArticle(ctx, articleID)
	if err != nil {
		return false, fromUpstream(err)
	}
	return !upstream(article), nil
}

// recordMirror logs and stores the mirror outcome. Local state is never rolled back.
func (s *ArticleService) recordMirror(ctx context.Context, userID string, state *domain.ArticleState, flag string, mirrorErr error) *domain.ArticleStateDTO {
	dto := &domain.ArticleStateDTO{
		ArticleID: state.ArticleID,
		Read:      state.Read,
		Saved:     state.Saved,
		Mirrored:  mirrorErr == nil,
	}

	message := ""
	if mirrorErr != nil {
		message = mirrorErr.Error()
		dto.MirrorError = message
		s.logger.Error("failed to mirror article flag upstream",
			zap.String("user_id", userID),
			zap.String("article_id", state.ArticleID),
			zap.String("flag", flag),
			zap.Error(mirrorErr),
		)
	}
	if message != "" || state.MirrorError != "" {
		if err := s.states.SetMirrorError(ctx, userID, state.ArticleID, message); err != nil {
			s.logger.Warn("failed to record mirror result", zap.String("article_id", state.ArticleID), zap.Error(err))
		}
	}
	return dto
}

// Delete removes an article upstream
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteArticle(ctx, id); err != nil {
		s.logger.Error("failed to delete article", zap.String("article_id", id), zap.Error(err))
		return fromUpstream(err)
	}
	s.logger.Info("article deleted", zap.String("article_id", id))
	return nil
}

// State returns the user's read, saved and viewed containers
func (s *ArticleService) State(ctx context.Context) (*domain.UserStateDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	states, err := s.states.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load article state: %w", err)
	}

	dto := &domain.UserStateDTO{
		Read:   make(map[string]bool),
		Saved:  make(map[string]bool),
		Viewed: make(map[string]time.Time),
	}
	for _, st := range states {
		if st.IsRead() {
			dto.Read[st.ArticleID] = true
		}
		if st.IsSaved() {
			dto.Saved[st.ArticleID] = true
		}
		if st.ViewedAt != nil {
			dto.Viewed[st.ArticleID] = *st.ViewedAt
		}
	}
	return dto, nil
}

type exportDocument struct {
	ExportedAt time.Time        `json:"exportedAt"`
	Filter     exportFilterInfo `json:"filter"`
	Articles   []domain.Article `json:"articles"`
	Total      int              `json:"total"`
}

type exportFilterInfo struct {
	Window string `json:"window"`
	Sort   string `json:"sort"`
}

// Export writes the filtered article list to storage as JSON
func (s *ArticleService) Export(ctx context.Context, p ListParams) (*domain.ExportDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.List(ctx, p)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc, err := json.Marshal(exportDocument{
		ExportedAt: now,
		Filter:     exportFilterInfo{Window: p.Filter.Window.String(), Sort: string(p.Sort)},
		Articles:   list.Articles,
		Total:      list.Total,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	id := uuid.New()
	key := fmt.Sprintf("exports/%s/%s.json", user.ID, id)
	size, err := s.storage.Put(ctx, key, exportContentType, bytes.NewReader(doc))
	if err != nil {
		s.logger.Error("failed to store export", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	export := &domain.Export{
		ID:           id,
		UserID:       user.ID,
		StoragePath:  key,
		ContentType:  exportContentType,
		ArticleCount: list.Total,
		SizeBytes:    size,
		CreatedAt:    now,
	}
	if err := s.exports.Create(ctx, export); err != nil {
		_ = s.storage.Delete(ctx, key)
		return nil, fmt.Errorf("failed to record export: %w", err)
	}

	s.logger.Info("articles exported",
		zap.String("user_id", user.ID),
		zap.String("export_id", id.String()),
		zap.Int("articles", list.Total),
		zap.Int64("size", size),
	)
	return toExportDTO(export), nil
}

// OpenExport returns a stored export owned by the current user (admins may open any)
func (s *ArticleService) OpenExport(ctx context.Context, id uuid.UUID) (io.ReadCloser, *domain.ExportDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, nil, err
	}
	export, err := s.exports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load export: %w", err)
	}
	if export.UserID != user.ID && !user.IsAdmin() {
		return nil, nil, ErrNotFound
	}

	rc, err := s.storage.Open(ctx, export.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open export: %w", err)
	}
	return rc, toExportDTO(export), nil
}

// ListExports returns the current user's exports, newest first
func (s *ArticleService) ListExports(ctx context.Context) ([]domain.ExportDTO, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	exports, err := s.exports.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	out := make([]domain.ExportDTO, len(exports))
	for i := range exports {
		out[i] = *toExportDTO(&exports[i])
	}
	return out, nil
}

// DeleteExport removes the stored file and its record. A file that is
// already gone does not block removing the record.
func (s *ArticleService) DeleteExport(ctx context.Context, id uuid.UUID) error {
	user, err := currentUser(ctx)
	if err != nil {
		return err
	}
	export, err := s.exports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load export: %w", err)
	}
	if export.UserID != user.ID && !user.IsAdmin() {
		return ErrNotFound
	}

	if err := s.storage.Delete(ctx, export.StoragePath); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete export file: %w", err)
	}
	if err := s.exports.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete export: %w", err)
	}
	s.logger.Info("export deleted", zap.String("user_id", user.ID), zap.String("export_id", id.String()))
	return nil
}

func toExportDTO(e *domain.Export) *domain.ExportDTO {
	return &domain.ExportDTO{
		ID:           e.ID,
		ContentType:  e.ContentType,
		ArticleCount: e.ArticleCount,
		SizeBytes:    e.SizeBytes,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
