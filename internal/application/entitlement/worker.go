package entitlement

import (
	"context"
	"sync"
	"time"

	"github.com/authbase/backend/internal/domain/entitlement"
	"go.uber.org/zap"
)

// WorkerConfig holds configuration for the reconcile worker
type WorkerConfig struct {
	BatchSize    int
	PollInterval time.Duration
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
}

// DefaultWorkerConfig returns default configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:    50,
		PollInterval: 10 * time.Second,
		BaseBackoff:  30 * time.Second,
		MaxBackoff:   1 * time.Hour,
	}
}

// Worker drains the reconcile job queue in the background. It carries out
// the billing-side cleanup that app deletion enqueued transactionally, so
// the external system eventually agrees with local state even across
// provider outages.
type Worker struct {
	jobRepo entitlement.JobRepository
	gateway entitlement.BillingGateway
	config  WorkerConfig
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a new reconcile worker
func NewWorker(
	jobRepo entitlement.JobRepository,
	gateway entitlement.BillingGateway,
	config WorkerConfig,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		jobRepo: jobRepo,
		gateway: gateway,
		config:  config,
		logger:  logger,
	}
}

// Start starts the background processing
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.processLoop(ctx)

	w.logger.Info("billing reconcile worker started",
		zap.Int("batch_size", w.config.BatchSize),
		zap.Duration("poll_interval", w.config.PollInterval),
	)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("billing reconcile worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) processLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessDue(ctx)
		}
	}
}

// ProcessDue runs one drain pass over due jobs. Exported so tests and
// one-shot tooling can drive the queue without the ticker.
func (w *Worker) ProcessDue(ctx context.Context) {
	jobs, err := w.jobRepo.FindDue(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("failed to find due reconcile jobs", zap.Error(err))
		return
	}

	for _, job := range jobs {
		w.processJob(ctx, job)
	}
}

func (w *Worker) processJob(ctx context.Context, job *entitlement.ReconcileJob) {
	job.MarkProcessing()
	if err := w.jobRepo.Update(ctx, job); err != nil {
		w.logger.Error("failed to claim reconcile job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
		return
	}

	if err := w.execute(ctx, job); err != nil {
		job.MarkFailed(err, w.backoff(job.Attempts))
		if job.Status == entitlement.JobStatusFailed {
			w.logger.Warn("reconcile job exhausted its attempts",
				zap.String("job_id", job.ID.String()),
				zap.String("app_id", job.AppID.String()),
				zap.String("kind", string(job.Kind)),
				zap.Int("attempts", job.Attempts),
				zap.String("last_error", job.LastError),
			)
		} else {
			w.logger.Info("reconcile job failed, will retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("attempts", job.Attempts),
				zap.Error(err),
			)
		}
		if updateErr := w.jobRepo.Update(ctx, job); updateErr != nil {
			w.logger.Error("failed to update reconcile job", zap.Error(updateErr))
		}
		return
	}

	job.MarkCompleted()
	if err := w.jobRepo.Update(ctx, job); err != nil {
		w.logger.Error("failed to mark reconcile job completed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err))
		return
	}

	w.logger.Info("reconcile job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("app_id", job.AppID.String()),
		zap.String("kind", string(job.Kind)),
	)
}

func (w *Worker) execute(ctx context.Context, job *entitlement.ReconcileJob) error {
	switch job.Kind {
	case entitlement.JobKindCancelBilling:
		if job.SubscriptionRef != "" {
			if err := w.gateway.CancelSubscription(ctx, job.SubscriptionRef); err != nil {
				return err
			}
		}
		if job.CustomerRef != "" {
			if err := w.gateway.DeleteCustomer(ctx, job.CustomerRef); err != nil {
				return err
			}
		}
		return nil
	default:
		w.logger.Error("unknown reconcile job kind",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", string(job.Kind)))
		return nil
	}
}

// backoff doubles per attempt from the base, capped at the maximum
func (w *Worker) backoff(attempts int) time.Duration {
	d := w.config.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= w.config.MaxBackoff {
			return w.config.MaxBackoff
		}
	}
	if d > w.config.MaxBackoff {
		return w.config.MaxBackoff
	}
	return d
}
