package repository

import (
	"context"

	"github.com/pulsecrm/backend/domain"
)

type CampaignFilter struct {
	SegmentID string
	Status    string
	Limit     int
	Offset    int
}

type CampaignRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]domain.Campaign, error)
	Create(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// AddCounts accumulates delivery outcomes onto the campaign row.
	AddCounts(ctx context.Context, id string, sent, failed int) error
}

type DeliveryRepository interface {
	CreateBatch(ctx context.Context, logs []domain.DeliveryLog) error
	ListByCampaign(ctx context.Context, campaignID string, limit, offset int) ([]domain.DeliveryLog, error)
	UpdateStatus(ctx context.Context, id, status, vendorMessageID string) error
	// CountPending reports how many deliveries for the campaign are still in
	// flight, so the worker can mark the campaign completed.
	CountPending(ctx context.Context, campaignID string) (int, error)
}
