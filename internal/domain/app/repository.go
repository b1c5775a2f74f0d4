package app

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists App aggregates
type Repository interface {
	Create(ctx context.Context, a *App) error
	// Update performs a version-checked save; a stale version returns
	// shared.ErrConcurrencyConflict.
	Update(ctx context.Context, a *App) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*App, error)
	FindByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*App, error)
}

// ConfigRepository persists per-app config documents
type ConfigRepository interface {
	Create(ctx context.Context, rec *ConfigRecord) error
	// Update performs a version-checked save of the config document
	Update(ctx context.Context, rec *ConfigRecord) error
	FindByAppID(ctx context.Context, appID uuid.UUID) (*ConfigRecord, error)
	DeleteByAppID(ctx context.Context, appID uuid.UUID) error
}

// HostRepository persists the per-app hostname whitelist
type HostRepository interface {
	Create(ctx context.Context, h *Host) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByAppID(ctx context.Context, appID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Host, error)
	FindByAppID(ctx context.Context, appID uuid.UUID) ([]*Host, error)
	ExistsByHostname(ctx context.Context, appID uuid.UUID, hostname string) (bool, error)
}
