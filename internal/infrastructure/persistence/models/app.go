package models

import (
	"encoding/json"

	"github.com/authbase/backend/internal/domain/app"
	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AppModel is the persistence model for the App aggregate.
type AppModel struct {
	AggregateModel
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(200);not null"`
	Secret      string    `gorm:"type:varchar(128);not null"`
}

// TableName returns the table name for GORM
func (AppModel) TableName() string {
	return "apps"
}

// ToDomain converts the persistence model to a domain App aggregate.
func (m *AppModel) ToDomain() *app.App {
	return &app.App{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		OwnerUserID: m.OwnerUserID,
		Name:        m.Name,
		Secret:      m.Secret,
	}
}

// FromDomain populates the persistence model from a domain App aggregate.
func (m *AppModel) FromDomain(a *app.App) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.OwnerUserID = a.OwnerUserID
	m.Name = a.Name
	m.Secret = a.Secret
}

// AppModelFromDomain creates a new persistence model from a domain App.
func AppModelFromDomain(a *app.App) *AppModel {
	m := &AppModel{}
	m.FromDomain(a)
	return m
}

// AppConfigModel is the persistence model for the per-app config document.
// The document itself is stored as one jsonb column so schema evolution
// never needs a column migration.
type AppConfigModel struct {
	AppAggregateModel
	Document string `gorm:"type:jsonb;not null;default:'{}'"`
}

// TableName returns the table name for GORM
func (AppConfigModel) TableName() string {
	return "app_configs"
}

// ToDomain converts the persistence model to a domain ConfigRecord.
func (m *AppConfigModel) ToDomain() (*app.ConfigRecord, error) {
	var doc app.Config
	if err := json.Unmarshal([]byte(m.Document), &doc); err != nil {
		return nil, err
	}

	record := &app.ConfigRecord{Config: doc}
	m.PopulateAppAggregateRoot(&record.AppScopedAggregateRoot)
	return record, nil
}

// FromDomain populates the persistence model from a domain ConfigRecord.
func (m *AppConfigModel) FromDomain(r *app.ConfigRecord) error {
	raw, err := json.Marshal(r.Config)
	if err != nil {
		return err
	}

	m.FromDomainAppAggregateRoot(r.AppScopedAggregateRoot)
	m.Document = string(raw)
	return nil
}

// AppHostModel is the persistence model for a whitelisted hostname.
type AppHostModel struct {
	BaseModel
	AppID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_app_hostname"`
	Hostname string    `gorm:"type:varchar(253);not null;uniqueIndex:idx_app_hostname"`
}

// TableName returns the table name for GORM
func (AppHostModel) TableName() string {
	return "app_hosts"
}

// ToDomain converts the persistence model to a domain Host.
func (m *AppHostModel) ToDomain() *app.Host {
	return &app.Host{
		BaseEntity: m.BaseModel.ToDomain(),
		AppID:      m.AppID,
		Hostname:   m.Hostname,
	}
}

// FromDomain populates the persistence model from a domain Host.
func (m *AppHostModel) FromDomain(h *app.Host) {
	m.FromDomainBaseEntity(h.BaseEntity)
	m.AppID = h.AppID
	m.Hostname = h.Hostname
}
