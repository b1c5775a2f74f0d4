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

// GormCredentialRepository implements account.CredentialRepository using GORM
type GormCredentialRepository struct {
	db *gorm.DB
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db}
}

// Create persists a new credential
func (r *GormCredentialRepository) Create(ctx context.Context, credential *account.Credential) error {
	model := models.CredentialModelFromDomain(credential)
	return session(ctx, r.db).Create(model).Error
}

// Update saves credential changes
func (r *GormCredentialRepository) Update(ctx context.Context, credential *account.Credential) error {
	model := models.CredentialModelFromDomain(credential)
	return session(ctx, r.db).Select("*").Save(model).Error
}

// Delete removes a credential
func (r *GormCredentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return session(ctx, r.db).Delete(&models.CredentialModel{}, "id = ?", id).Error
}

// FindByID retrieves a credential
func (r *GormCredentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*account.Credential, error) {
	var model models.CredentialModel
	if err := session(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUserID retrieves all credentials held by a user, oldest first
func (r *GormCredentialRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*account.Credential, error) {
	var rows []models.CredentialModel
	if err := session(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainCredentials(rows), nil
}

// FindPasswordByEmail retrieves password credentials registered under the
// email within an app
func (r *GormCredentialRepository) FindPasswordByEmail(ctx context.Context, appID uuid.UUID, email string) ([]*account.Credential, error) {
	var rows []models.CredentialModel
	if err := session(ctx, r.db).
		Where("app_id = ? AND kind = ? AND email = ?",
			appID, string(account.CredentialKindPassword), email).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainCredentials(rows), nil
}

// FindOauthByExternalID retrieves OAuth credentials for a provider account
// within an app
func (r *GormCredentialRepository) FindOauthByExternalID(ctx context.Context, appID uuid.UUID, provider, externalID string) ([]*account.Credential, error) {
	var rows []models.CredentialModel
	if err := session(ctx, r.db).
		Where("app_id = ? AND kind = ? AND provider = ? AND external_id = ?",
			appID, string(account.CredentialKindOauth), provider, externalID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainCredentials(rows), nil
}

func toDomainCredentials(rows []models.CredentialModel) []*account.Credential {
	creds := make([]*account.Credential, len(rows))
	for i := range rows {
		creds[i] = rows[i].ToDomain()
	}
	return creds
}
