package account

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the persistence port for app users
type UserRepository interface {
	// Create persists a new user together with its credentials
	Create(ctx context.Context, user *User) error

	// Update persists user changes using optimistic concurrency control.
	// Returns shared.ErrConcurrencyConflict when the stored version moved.
	Update(ctx context.Context, user *User) error

	// Delete removes a user and all of its credentials
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByAppID removes every user (and their credentials) owned by an app
	DeleteByAppID(ctx context.Context, appID uuid.UUID) error

	// FindByID retrieves a user with its credentials loaded
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail retrieves users registered under the email within an app.
	// Multiple rows can match because distinct credentials may share an email.
	FindByEmail(ctx context.Context, appID uuid.UUID, email string) ([]*User, error)

	// CountByAppID returns the number of users owned by an app
	CountByAppID(ctx context.Context, appID uuid.UUID) (int64, error)

	// List returns up to limit users owned by the app matching the filter,
	// ordered by (created_at, id) ascending, starting strictly after the
	// cursor position when one is given. Credentials are loaded.
	List(ctx context.Context, appID uuid.UUID, filter Filter, after *Cursor, limit int) ([]*User, error)
}

// CredentialRepository defines the persistence port for credentials
type CredentialRepository interface {
	// Create persists a new credential
	Create(ctx context.Context, credential *Credential) error

	// Update persists credential changes
	Update(ctx context.Context, credential *Credential) error

	// Delete removes a credential
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID retrieves a credential
	FindByID(ctx context.Context, id uuid.UUID) (*Credential, error)

	// FindByUserID retrieves all credentials held by a user
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Credential, error)

	// FindPasswordByEmail retrieves password credentials registered under the
	// email within an app. Callers treat more than one row as data corruption.
	FindPasswordByEmail(ctx context.Context, appID uuid.UUID, email string) ([]*Credential, error)

	// FindOauthByExternalID retrieves OAuth credentials for the provider
	// account within an app. Callers treat more than one row as data
	// corruption.
	FindOauthByExternalID(ctx context.Context, appID uuid.UUID, provider, externalID string) ([]*Credential, error)
}
