package models

import (
	"github.com/authbase/backend/internal/domain/account"
	"github.com/google/uuid"
)

// AppUserModel is the persistence model for the app user aggregate.
type AppUserModel struct {
	AppAggregateModel
	Email         string `gorm:"type:varchar(200);not null;index:idx_users_app_email"`
	VerifiedEmail bool   `gorm:"not null;default:false"`
	FirstName     string `gorm:"type:varchar(100)"`
	LastName      string `gorm:"type:varchar(100)"`

	Credentials []CredentialModel `gorm:"foreignKey:UserID"`
}

// TableName returns the table name for GORM
func (AppUserModel) TableName() string {
	return "app_users"
}

// ToDomain converts the persistence model to a domain User aggregate.
func (m *AppUserModel) ToDomain() *account.User {
	user := &account.User{
		Email:         m.Email,
		VerifiedEmail: m.VerifiedEmail,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
	}
	m.PopulateAppAggregateRoot(&user.AppScopedAggregateRoot)

	if len(m.Credentials) > 0 {
		user.Credentials = make([]account.Credential, len(m.Credentials))
		for i := range m.Credentials {
			user.Credentials[i] = *m.Credentials[i].ToDomain()
		}
	}

	return user
}

// FromDomain populates the persistence model from a domain User aggregate.
// Credentials are mapped separately by the repository.
func (m *AppUserModel) FromDomain(u *account.User) {
	m.FromDomainAppAggregateRoot(u.AppScopedAggregateRoot)
	m.Email = u.Email
	m.VerifiedEmail = u.VerifiedEmail
	m.FirstName = u.FirstName
	m.LastName = u.LastName
}

// AppUserModelFromDomain creates a new persistence model from a domain User.
func AppUserModelFromDomain(u *account.User) *AppUserModel {
	m := &AppUserModel{}
	m.FromDomain(u)
	return m
}

// CredentialModel is the persistence model for a credential entity. All
// variant columns live in one row; the kind column tags which set is live.
type CredentialModel struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	AppID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind   string    `gorm:"type:varchar(20);not null"`

	Email         string `gorm:"type:varchar(200);index:idx_credentials_app_email"`
	EmailVerified bool   `gorm:"not null;default:false"`
	PasswordHash  string `gorm:"type:varchar(255)"`
	Strength      int    `gorm:"not null;default:0"`

	Provider      string `gorm:"type:varchar(50)"`
	ExternalID    string `gorm:"type:varchar(200)"`
	ProviderEmail string `gorm:"type:varchar(200)"`

	SecretRef string `gorm:"type:varchar(200)"`
	Enrolled  bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CredentialModel) TableName() string {
	return "credentials"
}

// ToDomain converts the persistence model to a domain Credential.
func (m *CredentialModel) ToDomain() *account.Credential {
	return &account.Credential{
		BaseEntity:    m.BaseModel.ToDomain(),
		UserID:        m.UserID,
		AppID:         m.AppID,
		Kind:          account.CredentialKind(m.Kind),
		Email:         m.Email,
		EmailVerified: m.EmailVerified,
		PasswordHash:  m.PasswordHash,
		Strength:      m.Strength,
		Provider:      m.Provider,
		ExternalID:    m.ExternalID,
		ProviderEmail: m.ProviderEmail,
		SecretRef:     m.SecretRef,
		Enrolled:      m.Enrolled,
	}
}

// FromDomain populates the persistence model from a domain Credential.
func (m *CredentialModel) FromDomain(c *account.Credential) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.UserID = c.UserID
	m.AppID = c.AppID
	m.Kind = string(c.Kind)
	m.Email = c.Email
	m.EmailVerified = c.EmailVerified
	m.PasswordHash = c.PasswordHash
	m.Strength = c.Strength
	m.Provider = c.Provider
	m.ExternalID = c.ExternalID
	m.ProviderEmail = c.ProviderEmail
	m.SecretRef = c.SecretRef
	m.Enrolled = c.Enrolled
}

// CredentialModelFromDomain creates a new persistence model from a domain Credential.
func CredentialModelFromDomain(c *account.Credential) *CredentialModel {
	m := &CredentialModel{}
	m.FromDomain(c)
	return m
}
