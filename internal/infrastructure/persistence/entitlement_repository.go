package persistence

import (
	"context"
	"errors"

	"github.com/authbase/backend/internal/domain/entitlement"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/authbase/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEntitlementRepository implements entitlement.Repository using GORM
type GormEntitlementRepository struct {
	db *gorm.DB
}

// NewGormEntitlementRepository creates a new GormEntitlementRepository
func NewGormEntitlementRepository(db *gorm.DB) *GormEntitlementRepository {
	return &GormEntitlementRepository{db: db}
}

// Create persists a new entitlement
func (r *GormEntitlementRepository) Create(ctx context.Context, ent *entitlement.Entitlement) error {
	model := models.EntitlementModelFromDomain(ent)
	return session(ctx, r.db).Create(model).Error
}

// Update saves an entitlement with optimistic locking
func (r *GormEntitlementRepository) Update(ctx context.Context, ent *entitlement.Entitlement) error {
	model := models.EntitlementModelFromDomain(ent)
	result := session(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", ent.ID, ent.Version-1).
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

// Delete removes an entitlement
func (r *GormEntitlementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return session(ctx, r.db).Delete(&models.EntitlementModel{}, "id = ?", id).Error
}

// DeleteByAppID removes the entitlement owned by an app
func (r *GormEntitlementRepository) DeleteByAppID(ctx context.Context, appID uuid.UUID) error {
	return session(ctx, r.db).Delete(&models.EntitlementModel{}, "app_id = ?", appID).Error
}

// FindByAppID retrieves the entitlement for an app
func (r *GormEntitlementRepository) FindByAppID(ctx context.Context, appID uuid.UUID) (*entitlement.Entitlement, error) {
	var model models.EntitlementModel
	if err := session(ctx, r.db).First(&model, "app_id = ?", appID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomerRef retrieves the entitlement holding a billing customer ref
func (r *GormEntitlementRepository) FindByCustomerRef(ctx context.Context, customerRef string) (*entitlement.Entitlement, error) {
	var model models.EntitlementModel
	if err := session(ctx, r.db).First(&model, "customer_ref = ?", customerRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
