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

type segmentRepository struct {
	pool *pgxpool.Pool
}

// NewSegmentRepository returns a Postgres-backed implementation of SegmentRepository.
func NewSegmentRepository(pool *pgxpool.Pool) repository.SegmentRepository {
	return &segmentRepository{pool: pool}
}

const segmentColumns = `id, name, description, rules, matched_ids, customer_count, created_at, updated_at`

func (r *segmentRepository) GetByID(ctx context.Context, id string) (*domain.Segment, error) {
	const query = `
	SELECT ` + segmentColumns + `
	FROM segments
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanSegment(row)
}

func (r *segmentRepository) List(ctx context.Context, filter repository.SegmentFilter) ([]domain.Segment, error) {
	const query = `
	SELECT ` + segmentColumns + `
	FROM segments
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []domain.Segment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, *s)
	}
	return segments, rows.Err()
}

func (r *segmentRepository) Create(ctx context.Context, segment *domain.Segment) (*domain.Segment, error) {
	if segment == nil {
		return nil, domain.ErrInvalidPayload
	}
	if segment.ID == "" {
		segment.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO segments (id, name, description, rules, matched_ids, customer_count)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		segment.ID,
		segment.Name,
		segment.Description,
		segment.Rules,
		segment.MatchedCustomerIDs,
		segment.CustomerCount,
	).Scan(&segment.CreatedAt, &segment.UpdatedAt); err != nil {
		return nil, err
	}
	return segment, nil
}

// Update rewrites the whole row, matched id set included, in one statement so
// concurrent readers see either the old membership or the new, never a mix.
func (r *segmentRepository) Update(ctx context.Context, segment *domain.Segment) error {
	if segment == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE segments
	SET name = $2,
		description = $3,
		rules = $4,
		matched_ids = $5,
		customer_count = $6,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		segment.ID,
		segment.Name,
		segment.Description,
		segment.Rules,
		segment.MatchedCustomerIDs,
		segment.CustomerCount,
	).Scan(&segment.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrSegmentNotFound
		}
		return err
	}
	return nil
}

func (r *segmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM segments WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSegmentNotFound
	}
	return nil
}

func scanSegment(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Segment, error) {
	var s domain.Segment
	var matched []string

	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.Rules,
		&matched,
		&s.CustomerCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSegmentNotFound
		}
		return nil, err
	}

	s.MatchedCustomerIDs = matched
	return &s, nil
}
