package persistence

import (
	"context"
	"errors"

	"github.com/authbase/backend/internal/domain/account"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/authbase/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository implements account.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create persists a new user together with its credentials
func (r *GormUserRepository) Create(ctx context.Context, user *account.User) error {
	db := session(ctx, r.db)

	model := models.AppUserModelFromDomain(user)
	if err := db.Create(model).Error; err != nil {
		return err
	}

	for i := range user.Credentials {
		credModel := models.CredentialModelFromDomain(&user.Credentials[i])
		if err := db.Create(credModel).Error; err != nil {
			return err
		}
	}
	return nil
}

// Update saves a user with optimistic locking. Credentials are persisted
// through the credential repository, not here.
func (r *GormUserRepository) Update(ctx context.Context, user *account.User) error {
	model := models.AppUserModelFromDomain(user)
	result := session(ctx, r.db).
		Model(model).
		Where("id = ? AND version = ?", user.ID, user.Version-1).
		Select("email", "verified_email", "first_name", "last_name", "version", "updated_at").
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete removes a user and all of its credentials
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := session(ctx, r.db)
	if err := db.Delete(&models.CredentialModel{}, "user_id = ?", id).Error; err != nil {
		return err
	}
	return db.Delete(&models.AppUserModel{}, "id = ?", id).Error
}

// DeleteByAppID removes every user and credential owned by an app
func (r *GormUserRepository) DeleteByAppID(ctx context.Context, appID uuid.UUID) error {
	db := session(ctx, r.db)
	if err := db.Delete(&models.CredentialModel{}, "app_id = ?", appID).Error; err != nil {
		return err
	}
	return db.Delete(&models.AppUserModel{}, "app_id = ?", appID).Error
}

// FindByID retrieves a user with its credentials loaded
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	var model models.AppUserModel
	if err := session(ctx, r.db).
		Preload("Credentials").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmail retrieves users registered under the email within an app
func (r *GormUserRepository) FindByEmail(ctx context.Context, appID uuid.UUID, email string) ([]*account.User, error) {
	var rows []models.AppUserModel
	if err := session(ctx, r.db).
		Preload("Credentials").
		Where("app_id = ? AND email = ?", appID, email).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainUsers(rows), nil
}

// CountByAppID returns the number of users owned by an app
func (r *GormUserRepository) CountByAppID(ctx context.Context, appID uuid.UUID) (int64, error) {
	var count int64
	err := session(ctx, r.db).
		Model(&models.AppUserModel{}).
		Where("app_id = ?", appID).
		Count(&count).Error
	return count, err
}

// List returns a filtered page of users ordered by (created_at, id)
// ascending, starting strictly after the cursor position when one is given.
func (r *GormUserRepository) List(ctx context.Context, appID uuid.UUID, filter account.Filter, after *account.Cursor, limit int) ([]*account.User, error) {
	query := session(ctx, r.db).
		Model(&models.AppUserModel{}).
		Preload("Credentials").
		Where("app_users.app_id = ?", appID)

	query = applyUserFilter(query, filter)

	if after != nil {
		query = query.Where(
			"app_users.created_at > ? OR (app_users.created_at = ? AND app_users.id > ?)",
			after.CreatedAt, after.CreatedAt, after.ID,
		)
	}

	var rows []models.AppUserModel
	if err := query.
		Order("app_users.created_at ASC, app_users.id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainUsers(rows), nil
}

// applyUserFilter narrows a user query with credential existence subqueries
func applyUserFilter(query *gorm.DB, filter account.Filter) *gorm.DB {
	if filter.Email != "" {
		query = query.Where("app_users.email = ?", filter.Email)
	}
	if filter.HasPassword {
		query = query.Where(
			"EXISTS (SELECT 1 FROM credentials c WHERE c.user_id = app_users.id AND c.kind = ?)",
			string(account.CredentialKindPassword),
		)
	}
	if filter.HasOauth {
		query = query.Where(
			"EXISTS (SELECT 1 FROM credentials c WHERE c.user_id = app_users.id AND c.kind = ?)",
			string(account.CredentialKindOauth),
		)
	}
	if len(filter.OauthProviders) > 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM credentials c WHERE c.user_id = app_users.id AND c.kind = ? AND c.provider IN ?)",
			string(account.CredentialKindOauth), filter.OauthProviders,
		)
	}
	return query
}

func toDomainUsers(rows []models.AppUserModel) []*account.User {
	users := make([]*account.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
	}
	return users
}
