package repository

import (
	"context"
	"errors"
	"time"

	"github.com/threatlens/dashboard-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// DefaultPreference is what a user without stored preferences gets
func DefaultPreference(userID string) *domain.Preference {
	return &domain.Preference{
		UserID:        userID,
		DefaultSort:   "newest",
		DefaultWindow: "all",
	}
}

func (r *PreferenceRepository) Get(ctx context.Context, userID string) (*domain.Preference, error) {
	var pref domain.Preference
	err := r.db.WithContext(ctx).First(&pref, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultPreference(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *PreferenceRepository) Save(ctx context.Context, pref *domain.Preference) error {
	pref.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"dark_mode", "default_sort", "default_window", "hide_read", "updated_at"}),
	}).Create(pref).Error
}
