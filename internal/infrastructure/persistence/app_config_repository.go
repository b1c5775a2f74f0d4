package persistence

import (
	"context"
	"errors"

	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/authbase/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAppConfigRepository implements app.ConfigRepository using GORM
type GormAppConfigRepository struct {
	db *gorm.DB
}

// NewGormAppConfigRepository creates a new GormAppConfigRepository
func NewGormAppConfigRepository(db *gorm.DB) *GormAppConfigRepository {
	return &GormAppConfigRepository{db: db}
}

// Create persists a new config record
func (r *GormAppConfigRepository) Create(ctx context.Context, rec *app.ConfigRecord) error {
	model := &models.AppConfigModel{}
	if err := model.FromDomain(rec); err != nil {
		return err
	}
	return session(ctx, r.db).Create(model).Error
}

// Update saves a config record with optimistic locking
func (r *GormAppConfigRepository) Update(ctx context.Context, rec *app.ConfigRecord) error {
	model := &models.AppConfigModel{}
	if err := model.FromDomain(rec); err != nil {
		return err
	}

	result := session(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", rec.ID, rec.Version-1).
		Select("*").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByAppID retrieves the config record for an app
func (r *GormAppConfigRepository) FindByAppID(ctx context.Context, appID uuid.UUID) (*app.ConfigRecord, error) {
	var model models.AppConfigModel
	if err := session(ctx, r.db).First(&model, "app_id = ?", appID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// DeleteByAppID removes the config record owned by an app
func (r *GormAppConfigRepository) DeleteByAppID(ctx context.Context, appID uuid.UUID) error {
	return session(ctx, r.db).Delete(&models.AppConfigModel{}, "app_id = ?", appID).Error
}
