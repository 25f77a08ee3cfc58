package customer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/repository"
)

type UseCase struct {
	customers repository.CustomerRepository
	orders    repository.OrderRepository
	logger    *zap.Logger
}

func New(customers repository.CustomerRepository, orders repository.OrderRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		customers: customers,
		orders:    orders,
		logger:    logger,
	}
}

func (uc *UseCase) List(ctx context.Context, filter repository.CustomerFilter) ([]domain.Customer, error) {
	return uc.customers.List(ctx, filter)
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return uc.customers.GetByID(ctx, id)
}

func (uc *UseCase) Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if customer == nil || strings.TrimSpace(customer.Name) == "" || strings.TrimSpace(customer.Email) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "customer name and email are required")
	}
	return uc.customers.Create(ctx, customer)
}

func (uc *UseCase) Update(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if customer == nil || customer.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if err := uc.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (uc *UseCase) Delete(ctx context.Context, id string) error {
	return uc.customers.Delete(ctx, id)
}

// IngestOrder records a purchase event. Aggregates on the customer row move in
// the same transaction; segment membership is deliberately untouched (segments
// are point-in-time snapshots).
func (uc *UseCase) IngestOrder(ctx context.Context, order *domain.Order) (*domain.Customer, error) {
	if order == nil || order.CustomerID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "order customer_id is required")
	}
	if order.Amount < 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "order amount must not be negative")
	}

	customer, err := uc.orders.Ingest(ctx, order)
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("order ingested",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.Float64("amount", order.Amount))
	return customer, nil
}

func (uc *UseCase) Orders(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, error) {
	return uc.orders.ListByCustomer(ctx, customerID, limit, offset)
}
