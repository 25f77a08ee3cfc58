package repository

import (
	"context"

	"github.com/pulsecrm/backend/domain"
)

type CustomerFilter struct {
	Search string
	Limit  int
	Offset int
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, filter CustomerFilter) ([]domain.Customer, error)
	// FindAll returns the full collection for segment evaluation. The read is
	// a point-in-time snapshot; no isolation is guaranteed across the scan.
	FindAll(ctx context.Context) ([]domain.Customer, error)
	Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id string) error
}
