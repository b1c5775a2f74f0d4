package app

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// secretBytes is the length of the generated signing secret in raw bytes.
// The secret is stored hex-encoded and is never re-derivable once rotated.
const secretBytes = 32

// App represents a tenant of the platform. It is the aggregate root owning
// the tenant's users, hosts, configuration and billing entitlement.
type App struct {
	shared.BaseAggregateRoot
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(200);not null"`
	Secret      string    `gorm:"type:varchar(128);not null"`
}

// TableName returns the table name for GORM
func (App) TableName() string {
	return "apps"
}

// NewApp creates a new app with a freshly generated signing secret
func NewApp(ownerUserID uuid.UUID, name string) (*App, error) {
	if ownerUserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner user id cannot be empty")
	}
	if err := validateAppName(name); err != nil {
		return nil, err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, shared.NewDomainError("SECRET_GENERATION_ERROR", "Failed to generate app secret")
	}

	app := &App{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerUserID:       ownerUserID,
		Name:              strings.TrimSpace(name),
		Secret:            secret,
	}

	app.AddDomainEvent(NewAppCreatedEvent(app))

	return app, nil
}

// Rename updates the app's display name
func (a *App) Rename(name string) error {
	if err := validateAppName(name); err != nil {
		return err
	}

	a.Name = strings.TrimSpace(name)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	return nil
}

// RotateSecret replaces the signing secret with a newly generated one.
// The previous secret is discarded; tokens signed with it become invalid.
func (a *App) RotateSecret() error {
	secret, err := generateSecret()
	if err != nil {
		return shared.NewDomainError("SECRET_GENERATION_ERROR", "Failed to generate app secret")
	}

	a.Secret = secret
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewAppSecretRotatedEvent(a))

	return nil
}

// MarkDeleted records the deletion event before the aggregate is removed
func (a *App) MarkDeleted() {
	a.AddDomainEvent(NewAppDeletedEvent(a))
}

func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func validateAppName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "App name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "App name cannot exceed 200 characters")
	}
	return nil
}
