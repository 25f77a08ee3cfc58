package repository

import (
	"context"

	"github.com/pulsecrm/backend/domain"
)

type SegmentFilter struct {
	Limit  int
	Offset int
}

type SegmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Segment, error)
	List(ctx context.Context, filter SegmentFilter) ([]domain.Segment, error)
	Create(ctx context.Context, segment *domain.Segment) (*domain.Segment, error)
	// Update replaces the segment row, including the whole matched id set, in
	// a single write. Readers never observe a mix of old and new membership.
	Update(ctx context.Context, segment *domain.Segment) error
	Delete(ctx context.Context, id string) error
}
