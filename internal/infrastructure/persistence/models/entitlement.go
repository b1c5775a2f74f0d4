package models

import (
	"time"

	"github.com/authbase/backend/internal/domain/entitlement"
	"github.com/google/uuid"
)

// EntitlementModel is the persistence model for the billing entitlement aggregate.
type EntitlementModel struct {
	AppAggregateModel
	CustomerRef     string `gorm:"type:varchar(100);uniqueIndex"`
	SubscriptionRef string `gorm:"type:varchar(100)"`
	Tier            int    `gorm:"not null;default:0"`
	Status          string `gorm:"type:varchar(20);not null"`
	ConsentRef      string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (EntitlementModel) TableName() string {
	return "billing_entitlements"
}

// ToDomain converts the persistence model to a domain Entitlement aggregate.
func (m *EntitlementModel) ToDomain() *entitlement.Entitlement {
	e := &entitlement.Entitlement{
		CustomerRef:     m.CustomerRef,
		SubscriptionRef: m.SubscriptionRef,
		Tier:            entitlement.PlanTier(m.Tier),
		Status:          entitlement.Status(m.Status),
		ConsentRef:      m.ConsentRef,
	}
	m.PopulateAppAggregateRoot(&e.AppScopedAggregateRoot)
	return e
}

// FromDomain populates the persistence model from a domain Entitlement.
func (m *EntitlementModel) FromDomain(e *entitlement.Entitlement) {
	m.FromDomainAppAggregateRoot(e.AppScopedAggregateRoot)
	m.CustomerRef = e.CustomerRef
	m.SubscriptionRef = e.SubscriptionRef
	m.Tier = int(e.Tier)
	m.Status = string(e.Status)
	m.ConsentRef = e.ConsentRef
}

// EntitlementModelFromDomain creates a new persistence model from a domain Entitlement.
func EntitlementModelFromDomain(e *entitlement.Entitlement) *EntitlementModel {
	m := &EntitlementModel{}
	m.FromDomain(e)
	return m
}

// ReconcileJobModel is the persistence model for a billing reconcile job.
type ReconcileJobModel struct {
	BaseModel
	AppID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	Kind            string     `gorm:"type:varchar(40);not null"`
	CustomerRef     string     `gorm:"type:varchar(100)"`
	SubscriptionRef string     `gorm:"type:varchar(100)"`
	Status          string     `gorm:"type:varchar(20);not null;index"`
	Attempts        int        `gorm:"not null;default:0"`
	MaxAttempts     int        `gorm:"not null;default:10"`
	LastError       string     `gorm:"type:text"`
	NextAttemptAt   *time.Time `gorm:"index"`
	CompletedAt     *time.Time
}

// TableName returns the table name for GORM
func (ReconcileJobModel) TableName() string {
	return "billing_reconcile_jobs"
}

// ToDomain converts the persistence model to a domain ReconcileJob.
func (m *ReconcileJobModel) ToDomain() *entitlement.ReconcileJob {
	return &entitlement.ReconcileJob{
		BaseEntity:      m.BaseModel.ToDomain(),
		AppID:           m.AppID,
		Kind:            entitlement.JobKind(m.Kind),
		CustomerRef:     m.CustomerRef,
		SubscriptionRef: m.SubscriptionRef,
		Status:          entitlement.JobStatus(m.Status),
		Attempts:        m.Attempts,
		MaxAttempts:     m.MaxAttempts,
		LastError:       m.LastError,
		NextAttemptAt:   m.NextAttemptAt,
		CompletedAt:     m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain ReconcileJob.
func (m *ReconcileJobModel) FromDomain(j *entitlement.ReconcileJob) {
	m.FromDomainBaseEntity(j.BaseEntity)
	m.AppID = j.AppID
	m.Kind = string(j.Kind)
	m.CustomerRef = j.CustomerRef
	m.SubscriptionRef = j.SubscriptionRef
	m.Status = string(j.Status)
	m.Attempts = j.Attempts
	m.MaxAttempts = j.MaxAttempts
	m.LastError = j.LastError
	m.NextAttemptAt = j.NextAttemptAt
	m.CompletedAt = j.CompletedAt
}

// ReconcileJobModelFromDomain creates a new persistence model from a domain ReconcileJob.
func ReconcileJobModelFromDomain(j *entitlement.ReconcileJob) *ReconcileJobModel {
	m := &ReconcileJobModel{}
	m.FromDomain(j)
	return m
}
