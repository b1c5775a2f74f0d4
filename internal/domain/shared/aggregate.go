package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is implemented by every aggregate root. The version feeds
// optimistic locking in the repositories; domain events collect until the
// service publishes them after a successful write.
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot holds the version and pending events shared by all
// aggregate roots.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// AppScopedAggregateRoot extends BaseAggregateRoot for entities owned by an App.
// Every child of an App carries the owning app id; it is immutable after creation.
type AppScopedAggregateRoot struct {
	BaseAggregateRoot
	AppID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewAppScopedAggregateRoot creates a new app-scoped aggregate root
func NewAppScopedAggregateRoot(appID uuid.UUID) AppScopedAggregateRoot {
	return AppScopedAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		AppID:             appID,
	}
}
