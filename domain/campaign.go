package domain

import "time"

// Campaign statuses.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusSending   = "sending"
	CampaignStatusCompleted = "completed"
)

// Delivery log statuses.
const (
	DeliveryStatusPending = "pending"
	DeliveryStatusSent    = "sent"
	DeliveryStatusFailed  = "failed"
)

// Campaign is a message blast addressed to a segment's materialized audience.
type Campaign struct {
	ID           string    `json:"id"`
	SegmentID    string    `json:"segment_id"`
	Name         string    `json:"name"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	AudienceSize int       `json:"audience_size"`
	SentCount    int       `json:"sent_count"`
	FailedCount  int       `json:"failed_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DeliveryLog records the outcome of one campaign message to one customer.
type DeliveryLog struct {
	ID              string    `json:"id"`
	CampaignID      string    `json:"campaign_id"`
	CustomerID      string    `json:"customer_id"`
	Status          string    `json:"status"`
	VendorMessageID string    `json:"vendor_message_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *Campaign) IsCompleted() bool {
	return c != nil && c.Status == CampaignStatusCompleted
}
