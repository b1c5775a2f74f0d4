package email

import (
	"context"
	"errors"
	"sync"

	"github.com/authbase/backend/internal/application/account"
	"github.com/authbase/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrQueueFull is returned when the outgoing mail queue cannot accept more
// messages. Callers decide whether that fails their operation.
var ErrQueueFull = errors.New("email: queue is full")

// Sender delivers a single message. Implementations wrap an SMTP client or
// a provider API.
type Sender interface {
	Send(ctx context.Context, req account.MailRequest) error
}

// Dispatcher queues mail requests and delivers them asynchronously with a
// fixed pool of workers, so enqueueing never blocks a user-facing request
// on a slow mail provider.
type Dispatcher struct {
	sender  Sender
	logger  *zap.Logger
	queue   chan account.MailRequest
	workers int

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewDispatcher creates a new mail dispatcher
func NewDispatcher(cfg config.MailConfig, sender Sender, logger *zap.Logger) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}

	return &Dispatcher{
		sender:  sender,
		logger:  logger,
		queue:   make(chan account.MailRequest, queueSize),
		workers: workers,
	}
}

// Start launches the delivery workers
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}

	workerCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.deliverLoop(workerCtx)
	}

	d.logger.Info("Mail dispatcher started",
		zap.Int("workers", d.workers),
		zap.Int("queue_size", cap(d.queue)))
}

// Stop shuts down the workers and waits for in-flight deliveries
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.cancel()
	d.started = false
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("Mail dispatcher stopped")
}

// Enqueue queues a mail request for asynchronous delivery. It never
// blocks; a full queue is reported instead.
func (d *Dispatcher) Enqueue(_ context.Context, req account.MailRequest) error {
	select {
	case d.queue <- req:
		return nil
	default:
		d.logger.Warn("Mail queue full, dropping request",
			zap.String("kind", string(req.Kind)),
			zap.String("app_id", req.AppID.String()))
		return ErrQueueFull
	}
}

func (d *Dispatcher) deliverLoop(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.queue:
			if err := d.sender.Send(ctx, req); err != nil {
				d.logger.Error("Failed to deliver mail",
					zap.String("kind", string(req.Kind)),
					zap.String("app_id", req.AppID.String()),
					zap.Error(err))
				continue
			}
			d.logger.Debug("Delivered mail",
				zap.String("kind", string(req.Kind)),
				zap.String("to", req.To))
		}
	}
}

// Ensure Dispatcher implements account.Mailer
var _ account.Mailer = (*Dispatcher)(nil)

// LogSender is a Sender that only logs, for development and tests when no
// mail provider is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender that logs instead of delivering
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the request without delivering anything
func (s *LogSender) Send(_ context.Context, req account.MailRequest) error {
	s.logger.Info("Mail delivery skipped (log sender)",
		zap.String("kind", string(req.Kind)),
		zap.String("to", req.To),
		zap.String("target_uri", req.TargetURI))
	return nil
}

// Ensure LogSender implements Sender
var _ Sender = (*LogSender)(nil)
