package queue

import (
	"time"

	"github.com/google/uuid"
)

// Job is one pending campaign message for one customer. Jobs survive process
// restarts; the delivery worker drains them in priority order.
type Job struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	DeliveryID string    `json:"delivery_id"`
	CustomerID string    `json:"customer_id"`
	Recipient  string    `json:"recipient"`
	Message    string    `json:"message"`
	Priority   int       `json:"priority"`
	Retries    int       `json:"retries"`
	Timestamp  time.Time `json:"timestamp"`

	bucketKey []byte
}

func (j *Job) normalize() {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.Priority <= 0 || j.Priority > 5 {
		j.Priority = 3
	}
	if j.Timestamp.IsZero() {
		j.Timestamp = time.Now()
	}
}
