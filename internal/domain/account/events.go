package account

import (
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeUser = "AppUser"

// Event type constants
const (
	EventTypeUserCreated            = "AppUserCreated"
	EventTypeUserDeleted            = "AppUserDeleted"
	EventTypeUserEmailVerified      = "AppUserEmailVerified"
	EventTypeCredentialAdded        = "CredentialAdded"
	EventTypeCredentialRemoved      = "CredentialRemoved"
	EventTypePasswordResetRequested = "PasswordResetRequested"
)

// UserCreatedEvent is published when a new app user is created
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewUserCreatedEvent creates a new UserCreatedEvent
func NewUserCreatedEvent(u *User) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserCreated, AggregateTypeUser, u.ID, u.AppID),
		Email:           u.Email,
	}
}

// UserDeletedEvent is published when an app user and its credentials are removed
type UserDeletedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewUserDeletedEvent creates a new UserDeletedEvent
func NewUserDeletedEvent(u *User) *UserDeletedEvent {
	return &UserDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserDeleted, AggregateTypeUser, u.ID, u.AppID),
		Email:           u.Email,
	}
}

// UserEmailVerifiedEvent is published when a user completes email verification
type UserEmailVerifiedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewUserEmailVerifiedEvent creates a new UserEmailVerifiedEvent
func NewUserEmailVerifiedEvent(u *User) *UserEmailVerifiedEvent {
	return &UserEmailVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserEmailVerified, AggregateTypeUser, u.ID, u.AppID),
		Email:           u.Email,
	}
}

// CredentialAddedEvent is published when a credential joins a user's set
type CredentialAddedEvent struct {
	shared.BaseDomainEvent
	CredentialID uuid.UUID      `json:"credential_id"`
	Kind         CredentialKind `json:"kind"`
	Provider     string         `json:"provider,omitempty"`
}

// NewCredentialAddedEvent creates a new CredentialAddedEvent
func NewCredentialAddedEvent(u *User, c *Credential) *CredentialAddedEvent {
	return &CredentialAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCredentialAdded, AggregateTypeUser, u.ID, u.AppID),
		CredentialID:    c.ID,
		Kind:            c.Kind,
		Provider:        c.Provider,
	}
}

// CredentialRemovedEvent is published when a credential leaves a user's set
type CredentialRemovedEvent struct {
	shared.BaseDomainEvent
	CredentialID uuid.UUID      `json:"credential_id"`
	Kind         CredentialKind `json:"kind"`
	Provider     string         `json:"provider,omitempty"`
}

// NewCredentialRemovedEvent creates a new CredentialRemovedEvent
func NewCredentialRemovedEvent(u *User, c *Credential) *CredentialRemovedEvent {
	return &CredentialRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCredentialRemoved, AggregateTypeUser, u.ID, u.AppID),
		CredentialID:    c.ID,
		Kind:            c.Kind,
		Provider:        c.Provider,
	}
}

// PasswordResetRequestedEvent is published when a reset email should be sent
type PasswordResetRequestedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewPasswordResetRequestedEvent creates a new PasswordResetRequestedEvent
func NewPasswordResetRequestedEvent(u *User) *PasswordResetRequestedEvent {
	return &PasswordResetRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePasswordResetRequested, AggregateTypeUser, u.ID, u.AppID),
		Email:           u.Email,
	}
}
