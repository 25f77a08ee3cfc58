package repository

import (
	"context"

	"github.com/pulsecrm/backend/domain"
)

type OrderRepository interface {
	// Ingest records the order and bumps the customer's aggregates
	// (total_spend, visit_count, last_visit) in one transaction, returning
	// the updated customer.
	Ingest(ctx context.Context, order *domain.Order) (*domain.Customer, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, error)
}
