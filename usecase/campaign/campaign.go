package campaign

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/internal/infrastructure/textgen"
	"github.com/pulsecrm/backend/repository"
	"github.com/pulsecrm/backend/usecase"
)

type UseCase struct {
	campaigns  repository.CampaignRepository
	segments   repository.SegmentRepository
	customers  repository.CustomerRepository
	deliveries repository.DeliveryRepository
	queue      usecase.DeliveryQueue
	generator  textgen.Generator
	genTimeout time.Duration
	logger     *zap.Logger
}

func New(
	campaigns repository.CampaignRepository,
	segments repository.SegmentRepository,
	customers repository.CustomerRepository,
	deliveries repository.DeliveryRepository,
	queue usecase.DeliveryQueue,
	generator textgen.Generator,
	genTimeout time.Duration,
	logger *zap.Logger,
) *UseCase {
	if genTimeout <= 0 {
		genTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		campaigns:  campaigns,
		segments:   segments,
		customers:  customers,
		deliveries: deliveries,
		queue:      queue,
		generator:  generator,
		genTimeout: genTimeout,
		logger:     logger,
	}
}

// Create launches a campaign against a segment's materialized audience: one
// delivery log and one queued job per matched customer. The audience is the
// segment's snapshot as stored; customers added since the last materialization
// are not picked up.
func (uc *UseCase) Create(ctx context.Context, segmentID, name, message string) (*domain.Campaign, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(message) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "campaign name and message are required")
	}

	segment, err := uc.segments.GetByID(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	audience, err := uc.resolveAudience(ctx, segment)
	if err != nil {
		return nil, err
	}

	campaign := &domain.Campaign{
		SegmentID:    segment.ID,
		Name:         name,
		Message:      message,
		Status:       domain.CampaignStatusDraft,
		AudienceSize: len(audience),
	}
	campaign, err = uc.campaigns.Create(ctx, campaign)
	if err != nil {
		return nil, err
	}

	if len(audience) == 0 {
		if err := uc.campaigns.UpdateStatus(ctx, campaign.ID, domain.CampaignStatusCompleted); err != nil {
			return nil, err
		}
		campaign.Status = domain.CampaignStatusCompleted
		return campaign, nil
	}

	logs := make([]domain.DeliveryLog, 0, len(audience))
	dispatches := make([]usecase.DeliveryDispatch, 0, len(audience))
	for i := range audience {
		c := &audience[i]
		deliveryID := uuid.NewString()
		logs = append(logs, domain.DeliveryLog{
			ID:         deliveryID,
			CampaignID: campaign.ID,
			CustomerID: c.ID,
			Status:     domain.DeliveryStatusPending,
		})
		dispatches = append(dispatches, usecase.DeliveryDispatch{
			DeliveryID: deliveryID,
			CampaignID: campaign.ID,
			CustomerID: c.ID,
			Recipient:  c.Email,
			Message:    personalize(message, c),
		})
	}

	if err := uc.deliveries.CreateBatch(ctx, logs); err != nil {
		return nil, err
	}
	if err := uc.queue.EnqueueDeliveries(ctx, dispatches); err != nil {
		return nil, err
	}
	if err := uc.campaigns.UpdateStatus(ctx, campaign.ID, domain.CampaignStatusSending); err != nil {
		return nil, err
	}
	campaign.Status = domain.CampaignStatusSending

	uc.logger.Info("campaign queued",
		zap.String("campaign_id", campaign.ID),
		zap.String("segment_id", segment.ID),
		zap.Int("audience", len(audience)))
	return campaign, nil
}

func (uc *UseCase) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return uc.campaigns.GetByID(ctx, id)
}

func (uc *UseCase) List(ctx context.Context, filter repository.CampaignFilter) ([]domain.Campaign, error) {
	return uc.campaigns.List(ctx, filter)
}

func (uc *UseCase) Logs(ctx context.Context, campaignID string, limit, offset int) ([]domain.DeliveryLog, error) {
	if _, err := uc.campaigns.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}
	return uc.deliveries.ListByCampaign(ctx, campaignID, limit, offset)
}

// HandleReceipt applies a vendor delivery callback to the matching log entry.
// Counters are owned by the worker's send path, so receipts only adjust the
// log status and vendor reference.
func (uc *UseCase) HandleReceipt(ctx context.Context, deliveryID, status, vendorMessageID string) error {
	if status != domain.DeliveryStatusSent && status != domain.DeliveryStatusFailed {
		return domain.NewError(domain.ErrCodeInvalid, "receipt status must be sent or failed")
	}
	return uc.deliveries.UpdateStatus(ctx, deliveryID, status, vendorMessageID)
}

// Suggest asks the text generator for candidate campaign messages for the
// given objective. Output is free text; it is returned as plain suggestions
// and never executed or persisted.
func (uc *UseCase) Suggest(ctx context.Context, objective string) ([]string, error) {
	if uc.generator == nil {
		return nil, domain.NewError(domain.ErrCodeInvalid, "message suggestions are not configured")
	}
	objective = strings.TrimSpace(objective)
	if objective == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "objective is required")
	}

	genCtx, cancel := context.WithTimeout(ctx, uc.genTimeout)
	defer cancel()

	prompt := `Write three short marketing messages for this objective. Use {name} as the customer name placeholder. Respond with a JSON array of strings only. Objective: ` + objective
	text, err := uc.generator.Generate(genCtx, prompt)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "message suggestion failed", err)
	}

	var suggestions []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &suggestions); err != nil {
		// Generators occasionally answer with plain lines.
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				suggestions = append(suggestions, line)
			}
		}
	}
	if len(suggestions) == 0 {
		return nil, domain.NewError(domain.ErrCodeInternal, "message suggestion produced no output")
	}
	return suggestions, nil
}

func (uc *UseCase) resolveAudience(ctx context.Context, segment *domain.Segment) ([]domain.Customer, error) {
	if len(segment.MatchedCustomerIDs) == 0 {
		return nil, nil
	}
	matched := make(map[string]struct{}, len(segment.MatchedCustomerIDs))
	for _, id := range segment.MatchedCustomerIDs {
		matched[id] = struct{}{}
	}

	all, err := uc.customers.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	audience := make([]domain.Customer, 0, len(matched))
	for i := range all {
		if _, ok := matched[all[i].ID]; ok {
			audience = append(audience, all[i])
		}
	}
	return audience, nil
}

func personalize(message string, c *domain.Customer) string {
	return strings.ReplaceAll(message, "{name}", c.Name)
}
