package repository

import (
	"context"
	"errors"
	"time"

	"github.com/threatlens/dashboard-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleStateRepository persists per-user read/saved/viewed markers
type ArticleStateRepository struct {
	db *gorm.DB
}

func NewArticleStateRepository(db *gorm.DB) *ArticleStateRepository {
	return &ArticleStateRepository{db: db}
}

// Get returns the state row, or a zero state when none exists yet
func (r *ArticleStateRepository) Get(ctx context.Context, userID, articleID string) (*domain.ArticleState, error) {
	var state domain.ArticleState
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.ArticleState{UserID: userID, ArticleID: articleID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *ArticleStateRepository) SetRead(ctx context.Context, userID, articleID string, read bool) (*domain.ArticleState, error) {
	state := &domain.ArticleState{UserID: userID, ArticleID: articleID, Read: &read}
	if err := r.upsert(ctx, state, "read"); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, articleID)
}

func (r *ArticleStateRepository) SetSaved(ctx context.Context, userID, articleID string, saved bool) (*domain.ArticleState, error) {
	state := &domain.ArticleState{UserID: userID, ArticleID: articleID, Saved: &saved}
	if err := r.upsert(ctx, state, "saved"); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, articleID)
}

// MarkViewed records when the user last opened the article
func (r *ArticleStateRepository) MarkViewed(ctx context.Context, userID, articleID string, at time.Time) error {
	at = at.UTC()
	return r.upsert(ctx, &domain.ArticleState{UserID: userID, ArticleID: articleID, ViewedAt: &at}, "viewed_at")
}

// SetMirrorError stores the outcome of the last upstream mirror call; an empty message clears it
func (r *ArticleStateRepository) SetMirrorError(ctx context.Context, userID, articleID, message string) error {
	return r.upsert(ctx, &domain.ArticleState{UserID: userID, ArticleID: articleID, MirrorError: message}, "mirror_error")
}

func (r *ArticleStateRepository) upsert(ctx context.Context, state *domain.ArticleState, columns ...string) error {
	state.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "article_id"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}).Create(state).Error
}

func (r *ArticleStateRepository) ListByUser(ctx context.Context, userID string) ([]domain.ArticleState, error) {
	var states []domain.ArticleState
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&states).Error
	return states, err
}

// ReadMap returns article id -> read for every article whose read flag the user set
func (r *ArticleStateRepository) ReadMap(ctx context.Context, userID string) (map[string]bool, error) {
	return r.flagMap(ctx, userID, func(s domain.ArticleState) *bool { return s.Read })
}

// SavedMap returns article id -> saved for every article whose saved flag the user set
func (r *ArticleStateRepository) SavedMap(ctx context.Context, userID string) (map[string]bool, error) {
	return r.flagMap(ctx, userID, func(s domain.ArticleState) *bool { return s.Saved })
}

func (r *ArticleStateRepository) flagMap(ctx context.Context, userID string, get func(domain.ArticleState) *bool) (map[string]bool, error) {
	states, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(states))
	for _, s := range states {
		if v := get(s); v != nil {
			out[s.ArticleID] = *v
		}
	}
	return out, nil
}

// SavedIDs lists the ids of the user's saved articles, most recently changed first
func (r *ArticleStateRepository) SavedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.ArticleState{}).
		Where("user_id = ? AND saved = ?", userID, true).
		Order("updated_at DESC").
		Pluck("article_id", &ids).Error
	return ids, err
}

// PruneViewed clears viewed markers older than before and drops rows that no
// longer carry any state. It returns the number of cleared markers.
func (r *ArticleStateRepository) PruneViewed(ctx context.Context, before time.Time) (int64, error) {
	var cleared int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.ArticleState{}).
			Where("viewed_at IS NOT NULL AND viewed_at < ?", before.UTC()).
			Update("viewed_at", nil)
		if res.Error != nil {
			return res.Error
		}
		cleared = res.RowsAffected

		return tx.
			Where("read IS NULL AND saved IS NULL AND viewed_at IS NULL AND (mirror_error IS NULL OR mirror_error = '')").
			Delete(&domain.ArticleState{}).Error
	})
	return cleared, err
}
