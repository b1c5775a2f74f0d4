package persistence

import (
	"context"
	"time"

	"github.com/authbase/backend/internal/domain/entitlement"
	"github.com/authbase/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReconcileJobRepository implements entitlement.JobRepository using GORM
type GormReconcileJobRepository struct {
	db *gorm.DB
}

// NewGormReconcileJobRepository creates a new GormReconcileJobRepository
func NewGormReconcileJobRepository(db *gorm.DB) *GormReconcileJobRepository {
	return &GormReconcileJobRepository{db: db}
}

// Create persists a new reconcile job
func (r *GormReconcileJobRepository) Create(ctx context.Context, job *entitlement.ReconcileJob) error {
	model := models.ReconcileJobModelFromDomain(job)
	return session(ctx, r.db).Create(model).Error
}

// Update saves job state changes
func (r *GormReconcileJobRepository) Update(ctx context.Context, job *entitlement.ReconcileJob) error {
	model := models.ReconcileJobModelFromDomain(job)
	return session(ctx, r.db).Select("*").Save(model).Error
}

// FindDue retrieves up to limit pending jobs whose next attempt time has
// passed, oldest first
func (r *GormReconcileJobRepository) FindDue(ctx context.Context, limit int) ([]*entitlement.ReconcileJob, error) {
	var rows []models.ReconcileJobModel
	if err := session(ctx, r.db).
		Where("status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)",
			string(entitlement.JobStatusPending), time.Now()).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(rows), nil
}

// FindByAppID retrieves all jobs enqueued for an app
func (r *GormReconcileJobRepository) FindByAppID(ctx context.Context, appID uuid.UUID) ([]*entitlement.ReconcileJob, error) {
	var rows []models.ReconcileJobModel
	if err := session(ctx, r.db).
		Where("app_id = ?", appID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainJobs(rows), nil
}

func toDomainJobs(rows []models.ReconcileJobModel) []*entitlement.ReconcileJob {
	jobs := make([]*entitlement.ReconcileJob, len(rows))
	for i := range rows {
		jobs[i] = rows[i].ToDomain()
	}
	return jobs
}
