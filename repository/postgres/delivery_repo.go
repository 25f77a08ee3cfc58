package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/repository"
)

type deliveryRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryRepository returns a Postgres-backed implementation of DeliveryRepository.
func NewDeliveryRepository(pool *pgxpool.Pool) repository.DeliveryRepository {
	return &deliveryRepository{pool: pool}
}

func (r *deliveryRepository) CreateBatch(ctx context.Context, logs []domain.DeliveryLog) error {
	if len(logs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
	INSERT INTO delivery_logs (id, campaign_id, customer_id, status)
	VALUES ($1, $2, $3, $4)
	`
	for i := range logs {
		if logs[i].ID == "" {
			logs[i].ID = uuid.NewString()
		}
		if logs[i].Status == "" {
			logs[i].Status = domain.DeliveryStatusPending
		}
		batch.Queue(query, logs[i].ID, logs[i].CampaignID, logs[i].CustomerID, logs[i].Status)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range logs {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *deliveryRepository) ListByCampaign(ctx context.Context, campaignID string, limit, offset int) ([]domain.DeliveryLog, error) {
	const query = `
	SELECT id, campaign_id, customer_id, status, COALESCE(vendor_message_id, ''), created_at, updated_at
	FROM delivery_logs
	WHERE campaign_id = $1
	ORDER BY created_at
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, campaignID, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.DeliveryLog
	for rows.Next() {
		var l domain.DeliveryLog
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.CustomerID, &l.Status, &l.VendorMessageID, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *deliveryRepository) UpdateStatus(ctx context.Context, id, status, vendorMessageID string) error {
	const query = `
	UPDATE delivery_logs
	SET status = $2,
		vendor_message_id = NULLIF($3, ''),
		updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, status, vendorMessageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeliveryNotFound
	}
	return nil
}

func (r *deliveryRepository) CountPending(ctx context.Context, campaignID string) (int, error) {
	const query = `
	SELECT COUNT(*)
	FROM delivery_logs
	WHERE campaign_id = $1 AND status = $2
	`
	var count int
	err := r.pool.QueryRow(ctx, query, campaignID, domain.DeliveryStatusPending).Scan(&count)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	return count, nil
}
