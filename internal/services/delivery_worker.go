package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/internal/infrastructure/queue"
	"github.com/pulsecrm/backend/internal/infrastructure/vendor"
	"github.com/pulsecrm/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// WorkerConfig controls how frequently the delivery queue is drained.
type WorkerConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// DeliveryWorker drains queued campaign messages to the messaging vendor and
// records each outcome in the delivery log. It never touches customer data;
// segment membership was fixed when the campaign was created.
type DeliveryWorker struct {
	store      *queue.Store
	monitor    ConnectionHealth
	sender     vendor.Sender
	campaigns  repository.CampaignRepository
	deliveries repository.DeliveryRepository
	logger     *zap.Logger
	cron       *cron.Cron
	cfg        WorkerConfig
}

func NewDeliveryWorker(
	store *queue.Store,
	monitor ConnectionHealth,
	sender vendor.Sender,
	campaigns repository.CampaignRepository,
	deliveries repository.DeliveryRepository,
	logger *zap.Logger,
	cfg WorkerConfig,
) *DeliveryWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &DeliveryWorker{
		store:      store,
		monitor:    monitor,
		sender:     sender,
		campaigns:  campaigns,
		deliveries: deliveries,
		logger:     logger,
		cfg:        cfg,
		cron:       cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = w.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := w.Drain(ctx); err != nil {
			w.logger.Error("delivery drain failed", zap.Error(err))
		}
	})

	return w
}

// Start launches the cron scheduler.
func (w *DeliveryWorker) Start() {
	if w == nil || w.cron == nil {
		return
	}
	w.cron.Start()
	w.logger.Info("delivery worker started")
}

// Stop gracefully stops the scheduler.
func (w *DeliveryWorker) Stop(ctx context.Context) {
	if w == nil || w.cron == nil {
		return
	}
	stopCtx := w.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	w.logger.Info("delivery worker stopped")
}

// Enqueue durably queues a batch of delivery jobs.
func (w *DeliveryWorker) Enqueue(ctx context.Context, jobs []queue.Job) error {
	if w == nil || w.store == nil {
		return fmt.Errorf("delivery worker not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.store.EnqueueBatch(jobs)
}

// Size returns the number of queued jobs.
func (w *DeliveryWorker) Size() int {
	if w == nil || w.store == nil {
		return 0
	}
	size, err := w.store.Size()
	if err != nil {
		return 0
	}
	return size
}

// Drain processes queued jobs synchronously, then settles campaigns with no
// remaining pending deliveries.
func (w *DeliveryWorker) Drain(ctx context.Context) error {
	if w == nil || w.store == nil {
		return nil
	}
	if w.monitor != nil && !w.monitor.IsOnline() {
		w.logger.Debug("skipping delivery drain (offline)")
		return nil
	}

	jobs, err := w.store.GetBatch(w.cfg.BatchSize)
	if err != nil {
		return err
	}

	touched := make(map[string]struct{})
	for _, job := range jobs {
		touched[job.CampaignID] = struct{}{}

		if err := w.processJob(ctx, job); err != nil {
			w.logger.Warn("delivery attempt failed",
				zap.String("job_id", job.ID),
				zap.String("campaign_id", job.CampaignID),
				zap.Error(err))

			job.Retries++
			if job.Retries >= w.cfg.MaxRetries {
				w.markFailed(ctx, job)
				_ = w.store.Remove(job)
				continue
			}

			if err := w.store.Remove(job); err != nil {
				w.logger.Warn("failed to remove delivery job", zap.Error(err))
			}
			if err := w.store.Requeue(job); err != nil {
				w.logger.Error("failed to requeue delivery job", zap.Error(err))
			}
			continue
		}

		if err := w.store.Remove(job); err != nil {
			w.logger.Warn("failed to purge processed delivery job", zap.Error(err))
		}
	}

	for campaignID := range touched {
		w.settleCampaign(ctx, campaignID)
	}
	return nil
}

func (w *DeliveryWorker) processJob(ctx context.Context, job queue.Job) error {
	if ctx == nil {
		ctx = context.Background()
	}

	vendorID, err := w.sender.Send(ctx, vendor.Message{
		DeliveryID: job.DeliveryID,
		CampaignID: job.CampaignID,
		CustomerID: job.CustomerID,
		Recipient:  job.Recipient,
		Body:       job.Message,
	})
	if err != nil {
		return err
	}

	if err := w.deliveries.UpdateStatus(ctx, job.DeliveryID, domain.DeliveryStatusSent, vendorID); err != nil {
		w.logger.Error("failed to record sent delivery", zap.String("delivery_id", job.DeliveryID), zap.Error(err))
	}
	if err := w.campaigns.AddCounts(ctx, job.CampaignID, 1, 0); err != nil {
		w.logger.Error("failed to bump campaign counters", zap.String("campaign_id", job.CampaignID), zap.Error(err))
	}
	return nil
}

func (w *DeliveryWorker) markFailed(ctx context.Context, job queue.Job) {
	w.logger.Warn("dropping delivery job (max retries reached)", zap.String("job_id", job.ID))
	if err := w.deliveries.UpdateStatus(ctx, job.DeliveryID, domain.DeliveryStatusFailed, ""); err != nil {
		w.logger.Error("failed to record failed delivery", zap.String("delivery_id", job.DeliveryID), zap.Error(err))
	}
	if err := w.campaigns.AddCounts(ctx, job.CampaignID, 0, 1); err != nil {
		w.logger.Error("failed to bump campaign counters", zap.String("campaign_id", job.CampaignID), zap.Error(err))
	}
}

func (w *DeliveryWorker) settleCampaign(ctx context.Context, campaignID string) {
	pending, err := w.deliveries.CountPending(ctx, campaignID)
	if err != nil {
		w.logger.Warn("failed to count pending deliveries", zap.String("campaign_id", campaignID), zap.Error(err))
		return
	}
	if pending > 0 {
		return
	}
	if err := w.campaigns.UpdateStatus(ctx, campaignID, domain.CampaignStatusCompleted); err != nil {
		w.logger.Warn("failed to complete campaign", zap.String("campaign_id", campaignID), zap.Error(err))
	}
}
