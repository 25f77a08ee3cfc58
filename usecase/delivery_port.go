package usecase

import "context"

// DeliveryDispatch is one campaign message addressed to one customer, ready to
// be queued for the messaging vendor.
type DeliveryDispatch struct {
	DeliveryID string
	CampaignID string
	CustomerID string
	Recipient  string
	Message    string
}

// DeliveryQueue abstracts the durable delivery queue so use cases stay
// storage-agnostic.
type DeliveryQueue interface {
	EnqueueDeliveries(ctx context.Context, dispatches []DeliveryDispatch) error
	Size() int
}
