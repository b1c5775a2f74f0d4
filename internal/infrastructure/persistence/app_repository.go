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

// GormAppRepository implements app.Repository using GORM
type GormAppRepository struct {
	db *gorm.DB
}

// NewGormAppRepository creates a new GormAppRepository
func NewGormAppRepository(db *gorm.DB) *GormAppRepository {
	return &GormAppRepository{db: db}
}

// Create persists a new app
func (r *GormAppRepository) Create(ctx context.Context, a *app.App) error {
	model := models.AppModelFromDomain(a)
	return session(ctx, r.db).Create(model).Error
}

// Update saves an app with optimistic locking. The domain increments the
// version before the save, so the row must still hold the previous one.
func (r *GormAppRepository) Update(ctx context.Context, a *app.App) error {
	model := models.AppModelFromDomain(a)
	result := session(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", a.ID, a.Version-1).
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

// Delete removes an app row
func (r *GormAppRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return session(ctx, r.db).Delete(&models.AppModel{}, "id = ?", id).Error
}

// FindByID retrieves an app by its id
func (r *GormAppRepository) FindByID(ctx context.Context, id uuid.UUID) (*app.App, error) {
	var model models.AppModel
	if err := session(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwner retrieves all apps owned by a user, oldest first
func (r *GormAppRepository) FindByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*app.App, error) {
	var rows []models.AppModel
	if err := session(ctx, r.db).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	apps := make([]*app.App, len(rows))
	for i := range rows {
		apps[i] = rows[i].ToDomain()
	}
	return apps, nil
}
