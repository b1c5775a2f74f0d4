package account

import (
	"strings"
	"time"

	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CredentialKind tags the closed set of credential variants
type CredentialKind string

const (
	CredentialKindPassword CredentialKind = "password"
	CredentialKindOauth    CredentialKind = "oauth"
	CredentialKindTotp     CredentialKind = "totp"
)

// Password cost for bcrypt
const bcryptCost = 12

// Credential is a tagged variant: exactly the fields of its kind are set.
// Variants are dispatched by kind, not inheritance; the per-kind capability
// surface is VerifyPassword / UsableWith.
type Credential struct {
	shared.BaseEntity
	UserID uuid.UUID      `gorm:"type:uuid;not null;index"`
	AppID  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Kind   CredentialKind `gorm:"type:varchar(20);not null"`

	// password variant
	Email         string `gorm:"type:varchar(200)"`
	EmailVerified bool   `gorm:"not null;default:false"`
	PasswordHash  string `gorm:"type:varchar(255)"`
	Strength      int    `gorm:"not null;default:0"`

	// oauth variant
	Provider      string `gorm:"type:varchar(50)"`
	ExternalID    string `gorm:"type:varchar(200)"`
	ProviderEmail string `gorm:"type:varchar(200)"`

	// totp variant
	SecretRef string `gorm:"type:varchar(200)"`
	Enrolled  bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Credential) TableName() string {
	return "credentials"
}

// NewPasswordCredential creates a password credential, hashing the plaintext
// with bcrypt and recording the estimated strength it was accepted at.
func NewPasswordCredential(userID, appID uuid.UUID, email, password string) (*Credential, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &Credential{
		BaseEntity:   shared.NewBaseEntity(),
		UserID:       userID,
		AppID:        appID,
		Kind:         CredentialKindPassword,
		Email:        email,
		PasswordHash: string(hash),
		Strength:     EstimateStrength(password),
	}, nil
}

// NewOauthCredential records a verified (provider, externalId, emailClaim)
// tuple produced by an external handshake.
func NewOauthCredential(userID, appID uuid.UUID, provider, externalID, providerEmail string) (*Credential, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "OAuth provider cannot be empty")
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "OAuth external id cannot be empty")
	}

	return &Credential{
		BaseEntity:    shared.NewBaseEntity(),
		UserID:        userID,
		AppID:         appID,
		Kind:          CredentialKindOauth,
		Provider:      provider,
		ExternalID:    externalID,
		ProviderEmail: strings.ToLower(strings.TrimSpace(providerEmail)),
	}, nil
}

// NewTotpCredential creates a TOTP credential referencing an opaque secret.
// The credential is unusable until enrollment completes.
func NewTotpCredential(userID, appID uuid.UUID, secretRef string) (*Credential, error) {
	if strings.TrimSpace(secretRef) == "" {
		return nil, shared.NewDomainError("INVALID_SECRET_REF", "TOTP secret reference cannot be empty")
	}

	return &Credential{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		AppID:      appID,
		Kind:       CredentialKindTotp,
		SecretRef:  secretRef,
	}, nil
}

// VerifyPassword checks the plaintext against the stored hash.
// Always false for non-password variants.
func (c *Credential) VerifyPassword(password string) bool {
	if c.Kind != CredentialKindPassword {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the stored hash with one for the new plaintext.
// Only valid on password credentials.
func (c *Credential) SetPassword(password string) error {
	if c.Kind != CredentialKindPassword {
		return shared.NewDomainError("INVALID_CREDENTIAL", "Only password credentials hold a password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("HASH_FAILED", "Failed to hash password")
	}

	c.PasswordHash = string(hash)
	c.Strength = EstimateStrength(password)
	c.UpdatedAt = time.Now()
	return nil
}

// CompleteEnrollment marks a TOTP credential as enrolled
func (c *Credential) CompleteEnrollment() error {
	if c.Kind != CredentialKindTotp {
		return shared.NewDomainError("INVALID_CREDENTIAL", "Only TOTP credentials are enrolled")
	}
	c.Enrolled = true
	return nil
}

// UsableWith decides whether this credential may serve a login attempt under
// the given resolved config. Historical credentials of a disabled kind stay
// stored but are rejected here.
func (c *Credential) UsableWith(cfg app.Resolved) error {
	switch c.Kind {
	case CredentialKindPassword:
		return nil
	case CredentialKindOauth:
		_, err := cfg.ProviderForLogin(c.Provider)
		return err
	case CredentialKindTotp:
		if !c.Enrolled {
			return shared.NewDomainError("TOTP_NOT_ENROLLED", "TOTP enrollment is not complete")
		}
		return nil
	default:
		return shared.NewDomainError("INVALID_CREDENTIAL", "Unknown credential kind")
	}
}
