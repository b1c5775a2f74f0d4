package app

import (
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeApp = "App"

// Event type constants
const (
	EventTypeAppCreated       = "AppCreated"
	EventTypeAppDeleted       = "AppDeleted"
	EventTypeAppSecretRotated = "AppSecretRotated"
	EventTypeAppConfigUpdated = "AppConfigUpdated"
	EventTypeHostAdded        = "HostAdded"
	EventTypeHostRemoved      = "HostRemoved"
)

// AppCreatedEvent is published when a new app is created
type AppCreatedEvent struct {
	shared.BaseDomainEvent
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	Name        string    `json:"name"`
}

// NewAppCreatedEvent creates a new AppCreatedEvent
func NewAppCreatedEvent(a *App) *AppCreatedEvent {
	return &AppCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAppCreated, AggregateTypeApp, a.ID, a.ID),
		OwnerUserID:     a.OwnerUserID,
		Name:            a.Name,
	}
}

// AppDeletedEvent is published when an app and all of its children are removed
type AppDeletedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewAppDeletedEvent creates a new AppDeletedEvent
func NewAppDeletedEvent(a *App) *AppDeletedEvent {
	return &AppDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAppDeleted, AggregateTypeApp, a.ID, a.ID),
		Name:            a.Name,
	}
}

// AppSecretRotatedEvent is published when the signing secret is replaced
type AppSecretRotatedEvent struct {
	shared.BaseDomainEvent
}

// NewAppSecretRotatedEvent creates a new AppSecretRotatedEvent
func NewAppSecretRotatedEvent(a *App) *AppSecretRotatedEvent {
	return &AppSecretRotatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAppSecretRotated, AggregateTypeApp, a.ID, a.ID),
	}
}

// AppConfigUpdatedEvent is published after a successful config merge
type AppConfigUpdatedEvent struct {
	shared.BaseDomainEvent
}

// NewAppConfigUpdatedEvent creates a new AppConfigUpdatedEvent
func NewAppConfigUpdatedEvent(appID uuid.UUID) *AppConfigUpdatedEvent {
	return &AppConfigUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAppConfigUpdated, AggregateTypeApp, appID, appID),
	}
}

// HostAddedEvent is published when a hostname joins the app's whitelist
type HostAddedEvent struct {
	shared.BaseDomainEvent
	HostID   uuid.UUID `json:"host_id"`
	Hostname string    `json:"hostname"`
}

// NewHostAddedEvent creates a new HostAddedEvent
func NewHostAddedEvent(h *Host) *HostAddedEvent {
	return &HostAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeHostAdded, AggregateTypeApp, h.AppID, h.AppID),
		HostID:          h.ID,
		Hostname:        h.Hostname,
	}
}

// HostRemovedEvent is published when a hostname leaves the app's whitelist
type HostRemovedEvent struct {
	shared.BaseDomainEvent
	HostID   uuid.UUID `json:"host_id"`
	Hostname string    `json:"hostname"`
}

// NewHostRemovedEvent creates a new HostRemovedEvent
func NewHostRemovedEvent(h *Host) *HostRemovedEvent {
	return &HostRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeHostRemoved, AggregateTypeApp, h.AppID, h.AppID),
		HostID:          h.ID,
		Hostname:        h.Hostname,
	}
}
