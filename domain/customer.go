package domain

import "time"

// Customer represents a single CRM customer record. Numeric aggregates and
// last_visit are maintained by order ingestion; the segmentation engine only
// reads customers.
type Customer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Location   string    `json:"location,omitempty"`
	TotalSpend float64   `json:"total_spend"`
	VisitCount int       `json:"visit_count"`
	LastVisit  time.Time `json:"last_visit"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summary is the trimmed customer shape returned by segment previews.
type Summary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	TotalSpend float64 `json:"total_spend"`
	VisitCount int     `json:"visit_count"`
}

func (c *Customer) Summarize() Summary {
	return Summary{
		ID:         c.ID,
		Name:       c.Name,
		Email:      c.Email,
		TotalSpend: c.TotalSpend,
		VisitCount: c.VisitCount,
	}
}
