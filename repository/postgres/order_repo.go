package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/repository"
)

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns a Postgres-backed implementation of OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) repository.OrderRepository {
	return &orderRepository{pool: pool}
}

func (r *orderRepository) Ingest(ctx context.Context, order *domain.Order) (*domain.Customer, error) {
	if order == nil || order.CustomerID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.PlacedAt.IsZero() {
		order.PlacedAt = time.Now()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
	INSERT INTO orders (id, customer_id, amount, items, placed_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`
	if err := tx.QueryRow(ctx, insertOrder,
		order.ID,
		order.CustomerID,
		order.Amount,
		order.Items,
		order.PlacedAt,
	).Scan(&order.CreatedAt); err != nil {
		return nil, err
	}

	const bumpCustomer = `
	UPDATE customers
	SET total_spend = total_spend + $2,
		visit_count = visit_count + 1,
		last_visit = GREATEST(COALESCE(last_visit, $3), $3),
		updated_at = NOW()
	WHERE id = $1
	RETURNING ` + customerColumns + `
	`
	row := tx.QueryRow(ctx, bumpCustomer, order.CustomerID, order.Amount, order.PlacedAt)
	customer, err := scanCustomer(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]domain.Order, error) {
	const query = `
	SELECT id, customer_id, amount, items, placed_at, created_at
	FROM orders
	WHERE customer_id = $1
	ORDER BY placed_at DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, customerID, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Amount, &o.Items, &o.PlacedAt, &o.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				break
			}
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
