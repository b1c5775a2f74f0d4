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

// GormAppHostRepository implements app.HostRepository using GORM
type GormAppHostRepository struct {
	db *gorm.DB
}

// NewGormAppHostRepository creates a new GormAppHostRepository
func NewGormAppHostRepository(db *gorm.DB) *GormAppHostRepository {
	return &GormAppHostRepository{db: db}
}

// Create persists a new whitelisted host
func (r *GormAppHostRepository) Create(ctx context.Context, h *app.Host) error {
	model := &models.AppHostModel{}
	model.FromDomain(h)
	return session(ctx, r.db).Create(model).Error
}

// Delete removes a host entry
func (r *GormAppHostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return session(ctx, r.db).Delete(&models.AppHostModel{}, "id = ?", id).Error
}

// DeleteByAppID removes every host entry owned by an app
func (r *GormAppHostRepository) DeleteByAppID(ctx context.Context, appID uuid.UUID) error {
	return session(ctx, r.db).Delete(&models.AppHostModel{}, "app_id = ?", appID).Error
}

// FindByID retrieves a host entry
func (r *GormAppHostRepository) FindByID(ctx context.Context, id uuid.UUID) (*app.Host, error) {
	var model models.AppHostModel
	if err := session(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAppID retrieves the whitelist for an app, oldest first
func (r *GormAppHostRepository) FindByAppID(ctx context.Context, appID uuid.UUID) ([]*app.Host, error) {
	var rows []models.AppHostModel
	if err := session(ctx, r.db).
		Where("app_id = ?", appID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	hosts := make([]*app.Host, len(rows))
	for i := range rows {
		hosts[i] = rows[i].ToDomain()
	}
	return hosts, nil
}

// ExistsByHostname reports whether an app already whitelists a hostname
func (r *GormAppHostRepository) ExistsByHostname(ctx context.Context, appID uuid.UUID, hostname string) (bool, error) {
	var count int64
	if err := session(ctx, r.db).
		Model(&models.AppHostModel{}).
		Where("app_id = ? AND hostname = ?", appID, hostname).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
