package segment

import (
	"context"
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/repository"
	"github.com/pulsecrm/backend/rules"
)

// SampleSize caps how many customer summaries a preview returns.
const SampleSize = 5

// Preview is the non-persisting dry run of a rule: how many customers match
// now, and a small stable sample of them.
type Preview struct {
	Count  int              `json:"count"`
	Sample []domain.Summary `json:"sample"`
}

type UseCase struct {
	segments   repository.SegmentRepository
	customers  repository.CustomerRepository
	translator *Translator
	logger     *zap.Logger
}

func New(segments repository.SegmentRepository, customers repository.CustomerRepository, translator *Translator, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		segments:   segments,
		customers:  customers,
		translator: translator,
		logger:     logger,
	}
}

// Preview evaluates a rule against the live customer collection without
// persisting anything. Safe to call repeatedly and concurrently.
func (uc *UseCase) Preview(ctx context.Context, rawRules json.RawMessage) (*Preview, error) {
	matched, customers, err := uc.materialize(ctx, rawRules)
	if err != nil {
		return nil, err
	}

	sample := make([]domain.Summary, 0, SampleSize)
	for _, i := range sampleOrder(customers, matched) {
		c := &customers[i]
		if _, ok := matched[c.ID]; !ok {
			continue
		}
		sample = append(sample, c.Summarize())
		if len(sample) == SampleSize {
			break
		}
	}

	return &Preview{Count: len(matched), Sample: sample}, nil
}

// Create materializes a new segment: the rule is evaluated once and the
// matched id set stored as a point-in-time snapshot.
func (uc *UseCase) Create(ctx context.Context, name, description string, rawRules json.RawMessage) (*domain.Segment, error) {
	if name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "segment name is required")
	}
	if description == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "segment description is required")
	}

	matched, _, err := uc.materialize(ctx, rawRules)
	if err != nil {
		return nil, err
	}

	segment := &domain.Segment{
		Name:               name,
		Description:        description,
		Rules:              rawRules,
		MatchedCustomerIDs: rules.SortedIDs(matched),
		CustomerCount:      len(matched),
	}
	return uc.segments.Create(ctx, segment)
}

// Update re-evaluates the segment's rule and replaces the matched set
// wholesale. Ids matched before but absent from the new evaluation are
// dropped, never retained.
func (uc *UseCase) Update(ctx context.Context, id, name, description string, rawRules json.RawMessage) (*domain.Segment, error) {
	segment, err := uc.segments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "segment name is required")
	}
	if description == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "segment description is required")
	}

	matched, _, err := uc.materialize(ctx, rawRules)
	if err != nil {
		return nil, err
	}

	segment.Name = name
	segment.Description = description
	segment.Rules = rawRules
	segment.MatchedCustomerIDs = rules.SortedIDs(matched)
	segment.CustomerCount = len(matched)

	if err := uc.segments.Update(ctx, segment); err != nil {
		return nil, err
	}
	return segment, nil
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Segment, error) {
	return uc.segments.GetByID(ctx, id)
}

func (uc *UseCase) List(ctx context.Context, filter repository.SegmentFilter) ([]domain.Segment, error) {
	return uc.segments.List(ctx, filter)
}

func (uc *UseCase) Delete(ctx context.Context, id string) error {
	return uc.segments.Delete(ctx, id)
}

// Translate converts a free-text objective into a validated rule document via
// the external text generator. See Translator for the trust boundary.
func (uc *UseCase) Translate(ctx context.Context, objective string) (json.RawMessage, error) {
	if uc.translator == nil {
		return nil, domain.NewError(domain.ErrCodeInvalid, "rule translation is not configured")
	}
	return uc.translator.Translate(ctx, objective)
}

// materialize parses, validates and evaluates a rule document against the
// live collection. Validation failures surface before any customer influences
// the result, classified as INVALID for the transport layer.
func (uc *UseCase) materialize(ctx context.Context, rawRules json.RawMessage) (map[string]struct{}, []domain.Customer, error) {
	tree, err := rules.Parse(rawRules)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInvalid, "invalid segment rule", err)
	}

	customers, err := uc.customers.FindAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	matched, err := rules.Evaluate(tree, customers)
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrCodeInvalid, "invalid segment rule", err)
	}
	return matched, customers, nil
}

// sampleOrder yields customer indices sorted by name then id so preview
// samples are stable across calls. Evaluation itself is unordered.
func sampleOrder(customers []domain.Customer, matched map[string]struct{}) []int {
	idx := make([]int, len(customers))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ca, cb := &customers[idx[a]], &customers[idx[b]]
		if ca.Name != cb.Name {
			return ca.Name < cb.Name
		}
		return ca.ID < cb.ID
	})
	return idx
}
