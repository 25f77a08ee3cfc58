package domain

import (
	"encoding/json"
	"time"
)

// Order is a purchase event attributed to a customer. Ingesting an order bumps
// the customer's total_spend, visit_count and last_visit aggregates.
type Order struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Amount     float64         `json:"amount"`
	Items      json.RawMessage `json:"items,omitempty"`
	PlacedAt   time.Time       `json:"placed_at"`
	CreatedAt  time.Time       `json:"created_at"`
}
