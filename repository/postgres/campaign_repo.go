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

type campaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository returns a Postgres-backed implementation of CampaignRepository.
func NewCampaignRepository(pool *pgxpool.Pool) repository.CampaignRepository {
	return &campaignRepository{pool: pool}
}

const campaignColumns = `id, segment_id, name, message, status, audience_size, sent_count, failed_count, created_at, updated_at`

func (r *campaignRepository) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	const query = `
	SELECT ` + campaignColumns + `
	FROM campaigns
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanCampaign(row)
}

func (r *campaignRepository) List(ctx context.Context, filter repository.CampaignFilter) ([]domain.Campaign, error) {
	const query = `
	SELECT ` + campaignColumns + `
	FROM campaigns
	WHERE ($1 = '' OR segment_id = $1)
	  AND ($2 = '' OR status = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.SegmentID, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func (r *campaignRepository) Create(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	if campaign == nil {
		return nil, domain.ErrInvalidPayload
	}
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	if campaign.Status == "" {
		campaign.Status = domain.CampaignStatusDraft
	}

	const query = `
	INSERT INTO campaigns (id, segment_id, name, message, status, audience_size)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		campaign.ID,
		campaign.SegmentID,
		campaign.Name,
		campaign.Message,
		campaign.Status,
		campaign.AudienceSize,
	).Scan(&campaign.CreatedAt, &campaign.UpdatedAt); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (r *campaignRepository) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `
	UPDATE campaigns
	SET status = $2, updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

func (r *campaignRepository) AddCounts(ctx context.Context, id string, sent, failed int) error {
	const query = `
	UPDATE campaigns
	SET sent_count = sent_count + $2,
		failed_count = failed_count + $3,
		updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, sent, failed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

func scanCampaign(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Campaign, error) {
	var c domain.Campaign
	if err := row.Scan(
		&c.ID,
		&c.SegmentID,
		&c.Name,
		&c.Message,
		&c.Status,
		&c.AudienceSize,
		&c.SentCount,
		&c.FailedCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, err
	}
	return &c, nil
}
