package services

import (
	"context"

	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/internal/infrastructure/queue"
	"github.com/pulsecrm/backend/usecase"
)

// DeliveryBridge adapts the delivery worker's queue to the use case port.
type DeliveryBridge struct {
	worker *DeliveryWorker
}

func NewDeliveryBridge(worker *DeliveryWorker) *DeliveryBridge {
	return &DeliveryBridge{worker: worker}
}

func (b *DeliveryBridge) EnqueueDeliveries(ctx context.Context, dispatches []usecase.DeliveryDispatch) error {
	if b.worker == nil {
		return domain.ErrInvalidPayload
	}
	jobs := make([]queue.Job, 0, len(dispatches))
	for _, d := range dispatches {
		jobs = append(jobs, queue.Job{
			CampaignID: d.CampaignID,
			DeliveryID: d.DeliveryID,
			CustomerID: d.CustomerID,
			Recipient:  d.Recipient,
			Message:    d.Message,
			Priority:   3,
		})
	}
	return b.worker.Enqueue(ctx, jobs)
}

func (b *DeliveryBridge) Size() int {
	if b.worker == nil {
		return 0
	}
	return b.worker.Size()
}

var _ usecase.DeliveryQueue = (*DeliveryBridge)(nil)
