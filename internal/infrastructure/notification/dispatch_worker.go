package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/advisornet/reportd/internal/application/port"
	"github.com/advisornet/reportd/internal/domain/entity"
	"go.uber.org/zap"
)

// Delivery performs the actual transport of one notification.
type Delivery interface {
	Deliver(ctx context.Context, n *entity.Notification) error
}

// LogDelivery writes notifications to the application log. It stands in when
// no mail transport is configured.
type LogDelivery struct {
	logger *zap.Logger
}

// NewLogDelivery creates a log-backed delivery
func NewLogDelivery(logger *zap.Logger) *LogDelivery {
	return &LogDelivery{logger: logger}
}

// Deliver logs the notification and reports success
func (d *LogDelivery) Deliver(_ context.Context, n *entity.Notification) error {
	d.logger.Info("Notification delivered",
		zap.Int64("id", n.ID),
		zap.String("type", n.Type),
		zap.String("report_uuid", n.ReportUUID),
		zap.String("recipients", n.Recipients))
	return nil
}

// DispatchWorkerConfig holds configuration for the dispatch worker
type DispatchWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultDispatchWorkerConfig returns default configuration
func DefaultDispatchWorkerConfig() DispatchWorkerConfig {
	return DispatchWorkerConfig{
		PollInterval: 15 * time.Second,
		BatchSize:    20,
	}
}

// DispatchWorker drains the notification outbox in the background. It wakes
// on the outbox signal and additionally polls, so rows written by a process
// that crashed before waking it are still picked up.
type DispatchWorker struct {
	config   DispatchWorkerConfig
	repo     port.NotificationRepository
	delivery Delivery
	wake     <-chan struct{}
	logger   *zap.Logger

	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	isRunning   bool
	sentCount   int
	failedCount int
}

// NewDispatchWorker creates a new dispatch worker
func NewDispatchWorker(
	config DispatchWorkerConfig,
	repo port.NotificationRepository,
	delivery Delivery,
	wake <-chan struct{},
	logger *zap.Logger,
) *DispatchWorker {
	return &DispatchWorker{
		config:   config,
		repo:     repo,
		delivery: delivery,
		wake:     wake,
		logger:   logger,
	}
}

// Start begins the worker loop
func (w *DispatchWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("dispatch worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("DispatchWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.loop()

	return nil
}

// Stop gracefully terminates the worker
func (w *DispatchWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}

	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("DispatchWorker stopped",
		zap.Int("sent_count", w.sentCount),
		zap.Int("failed_count", w.failedCount))

	return nil
}

// Name returns the worker name for identification
func (w *DispatchWorker) Name() string {
	return "DispatchWorker"
}

func (w *DispatchWorker) loop() {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Dispatch loop context cancelled")
			return

		case <-w.wake:
			w.dispatchPending()

		case <-ticker.C:
			w.dispatchPending()
		}
	}
}

// dispatchPending delivers one batch of pending notifications. A failed row
// is marked FAILED and does not block the rest of the batch.
func (w *DispatchWorker) dispatchPending() {
	ctx := w.ctx

	pending, err := w.repo.GetPending(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("Failed to fetch pending notifications", zap.Error(err))
		return
	}

	for _, n := range pending {
		if err := w.delivery.Deliver(ctx, n); err != nil {
			w.logger.Error("Notification delivery failed",
				zap.Int64("id", n.ID),
				zap.String("type", n.Type),
				zap.Error(err))
			if mErr := w.repo.MarkFailed(ctx, n.ID, err.Error()); mErr != nil {
				w.logger.Error("Failed to mark notification failed", zap.Int64("id", n.ID), zap.Error(mErr))
			}
			w.mu.Lock()
			w.failedCount++
			w.mu.Unlock()
			continue
		}

		if err := w.repo.MarkSent(ctx, n.ID); err != nil {
			w.logger.Error("Failed to mark notification sent", zap.Int64("id", n.ID), zap.Error(err))
			continue
		}
		w.mu.Lock()
		w.sentCount++
		w.mu.Unlock()
	}
}
