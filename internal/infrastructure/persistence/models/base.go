package models

import (
	"time"

	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel carries the persistence fields every row has. It maps onto the
// domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel adds the version column aggregate roots need for
// optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// AppAggregateModel provides common persistence fields for app-scoped
// aggregate roots. It extends AggregateModel with the owning app id.
type AppAggregateModel struct {
	AggregateModel
	AppID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainAppAggregateRoot populates AppAggregateModel from domain AppScopedAggregateRoot
func (m *AppAggregateModel) FromDomainAppAggregateRoot(a shared.AppScopedAggregateRoot) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.AppID = a.AppID
}

// PopulateAppAggregateRoot populates a domain AppScopedAggregateRoot from persistence model
func (m *AppAggregateModel) PopulateAppAggregateRoot(a *shared.AppScopedAggregateRoot) {
	a.BaseAggregateRoot.BaseEntity.ID = m.ID
	a.BaseAggregateRoot.BaseEntity.CreatedAt = m.CreatedAt
	a.BaseAggregateRoot.BaseEntity.UpdatedAt = m.UpdatedAt
	a.BaseAggregateRoot.Version = m.Version
	a.AppID = m.AppID
}
