package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/threatlens/dashboard-api/internal/domain"
	"gorm.io/gorm"
)

type ExportRepository struct {
	db *gorm.DB
}

func NewExportRepository(db *gorm.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

func (r *ExportRepository) Create(ctx context.Context, export *domain.Export) error {
	return r.db.WithContext(ctx).Create(export).Error
}

func (r *ExportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Export, error) {
	var export domain.Export
	err := r.db.WithContext(ctx).First(&export, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &export, nil
}

func (r *ExportRepository) ListByUser(ctx context.Context, userID string) ([]domain.Export, error) {
	var exports []domain.Export
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&exports).Error
	return exports, err
}

func (r *ExportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Export{}, "id = ?", id).Error
}
