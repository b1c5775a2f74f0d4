package entitlement

import (
	"context"
	"time"

	"github.com/authbase/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// JobStatus is the processing state of a reconcile job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobKind names the reconciliation action to perform
type JobKind string

const (
	// JobKindCancelBilling tears down the billing customer and subscription
	// left behind by a deleted app.
	JobKindCancelBilling JobKind = "cancel_billing"
)

// ReconcileJob is a durable unit of billing cleanup work. Jobs are enqueued
// in the same transaction as the state change that requires them, so a
// committed deletion always has a committed cleanup job.
type ReconcileJob struct {
	shared.BaseEntity
	AppID           uuid.UUID  `gorm:"type:varchar(36);not null;index"`
	Kind            JobKind    `gorm:"type:varchar(40);not null"`
	CustomerRef     string     `gorm:"type:varchar(100)"`
	SubscriptionRef string     `gorm:"type:varchar(100)"`
	Status          JobStatus  `gorm:"type:varchar(20);not null;index"`
	Attempts        int        `gorm:"not null;default:0"`
	MaxAttempts     int        `gorm:"not null;default:10"`
	LastError       string     `gorm:"type:text"`
	NextAttemptAt   *time.Time `gorm:"index"`
	CompletedAt     *time.Time
}

// TableName returns the table name for GORM
func (ReconcileJob) TableName() string {
	return "billing_reconcile_jobs"
}

// NewCancelBillingJob enqueues cleanup for a deleted app's billing records
func NewCancelBillingJob(appID uuid.UUID, customerRef, subscriptionRef string) *ReconcileJob {
	now := time.Now()
	return &ReconcileJob{
		BaseEntity:      shared.NewBaseEntity(),
		AppID:           appID,
		Kind:            JobKindCancelBilling,
		CustomerRef:     customerRef,
		SubscriptionRef: subscriptionRef,
		Status:          JobStatusPending,
		MaxAttempts:     10,
		NextAttemptAt:   &now,
	}
}

// MarkProcessing claims the job for a worker
func (j *ReconcileJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempts++
	j.UpdatedAt = time.Now()
}

// MarkCompleted records successful reconciliation
func (j *ReconcileJob) MarkCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.NextAttemptAt = nil
	j.UpdatedAt = now
}

// MarkFailed records a failed attempt. The job goes back to pending with a
// backoff delay until attempts are exhausted, then sticks at failed.
func (j *ReconcileJob) MarkFailed(cause error, backoff time.Duration) {
	if cause != nil {
		j.LastError = cause.Error()
	}
	if j.Attempts >= j.MaxAttempts {
		j.Status = JobStatusFailed
		j.NextAttemptAt = nil
	} else {
		next := time.Now().Add(backoff)
		j.Status = JobStatusPending
		j.NextAttemptAt = &next
	}
	j.UpdatedAt = time.Now()
}

// Repository defines the persistence port for entitlements
type Repository interface {
	// Create persists a new entitlement
	Create(ctx context.Context, ent *Entitlement) error

	// Update persists entitlement changes using optimistic concurrency
	// control. Returns shared.ErrConcurrencyConflict when the stored version
	// moved.
	Update(ctx context.Context, ent *Entitlement) error

	// Delete removes an entitlement
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByAppID removes the entitlement owned by an app
	DeleteByAppID(ctx context.Context, appID uuid.UUID) error

	// FindByAppID retrieves the entitlement for an app
	FindByAppID(ctx context.Context, appID uuid.UUID) (*Entitlement, error)

	// FindByCustomerRef retrieves the entitlement holding a customer ref
	FindByCustomerRef(ctx context.Context, customerRef string) (*Entitlement, error)
}

// JobRepository defines the persistence port for reconcile jobs
type JobRepository interface {
	// Create persists a new job
	Create(ctx context.Context, job *ReconcileJob) error

	// Update persists job state changes
	Update(ctx context.Context, job *ReconcileJob) error

	// FindDue retrieves up to limit pending jobs whose next attempt time has
	// passed, oldest first.
	FindDue(ctx context.Context, limit int) ([]*ReconcileJob, error)

	// FindByAppID retrieves all jobs enqueued for an app
	FindByAppID(ctx context.Context, appID uuid.UUID) ([]*ReconcileJob, error)
}
