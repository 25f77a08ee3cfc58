package campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/repository"
	"github.com/pulsecrm/backend/usecase"
)

type fakeCampaignRepo struct {
	campaigns map[string]*domain.Campaign
	creates   int
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[string]*domain.Campaign)}
}

func (r *fakeCampaignRepo) GetByID(_ context.Context, id string) (*domain.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, domain.ErrCampaignNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeCampaignRepo) List(_ context.Context, _ repository.CampaignFilter) ([]domain.Campaign, error) {
	out := make([]domain.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCampaignRepo) Create(_ context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	r.creates++
	if campaign.ID == "" {
		campaign.ID = fmt.Sprintf("camp-%d", r.creates)
	}
	clone := *campaign
	r.campaigns[campaign.ID] = &clone
	return campaign, nil
}

func (r *fakeCampaignRepo) UpdateStatus(_ context.Context, id, status string) error {
	c, ok := r.campaigns[id]
	if !ok {
		return domain.ErrCampaignNotFound
	}
	c.Status = status
	return nil
}

func (r *fakeCampaignRepo) AddCounts(_ context.Context, id string, sent, failed int) error {
	c, ok := r.campaigns[id]
	if !ok {
		return domain.ErrCampaignNotFound
	}
	c.SentCount += sent
	c.FailedCount += failed
	return nil
}

type fakeSegmentRepo struct {
	segments map[string]*domain.Segment
}

func (r *fakeSegmentRepo) GetByID(_ context.Context, id string) (*domain.Segment, error) {
	s, ok := r.segments[id]
	if !ok {
		return nil, domain.ErrSegmentNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeSegmentRepo) List(_ context.Context, _ repository.SegmentFilter) ([]domain.Segment, error) {
	return nil, nil
}

func (r *fakeSegmentRepo) Create(_ context.Context, s *domain.Segment) (*domain.Segment, error) {
	return s, nil
}

func (r *fakeSegmentRepo) Update(_ context.Context, _ *domain.Segment) error { return nil }

func (r *fakeSegmentRepo) Delete(_ context.Context, _ string) error { return nil }

type fakeCustomerRepo struct {
	customers []domain.Customer
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	for i := range r.customers {
		if r.customers[i].ID == id {
			clone := r.customers[i]
			return &clone, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *fakeCustomerRepo) List(_ context.Context, _ repository.CustomerFilter) ([]domain.Customer, error) {
	return r.customers, nil
}

func (r *fakeCustomerRepo) FindAll(_ context.Context) ([]domain.Customer, error) {
	return r.customers, nil
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	return c, nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, _ *domain.Customer) error { return nil }

func (r *fakeCustomerRepo) Delete(_ context.Context, _ string) error { return nil }

type fakeDeliveryRepo struct {
	logs map[string]*domain.DeliveryLog
}

func newFakeDeliveryRepo() *fakeDeliveryRepo {
	return &fakeDeliveryRepo{logs: make(map[string]*domain.DeliveryLog)}
}

func (r *fakeDeliveryRepo) CreateBatch(_ context.Context, logs []domain.DeliveryLog) error {
	for i := range logs {
		clone := logs[i]
		r.logs[clone.ID] = &clone
	}
	return nil
}

func (r *fakeDeliveryRepo) ListByCampaign(_ context.Context, campaignID string, _, _ int) ([]domain.DeliveryLog, error) {
	var out []domain.DeliveryLog
	for _, l := range r.logs {
		if l.CampaignID == campaignID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeDeliveryRepo) UpdateStatus(_ context.Context, id, status, vendorMessageID string) error {
	l, ok := r.logs[id]
	if !ok {
		return domain.ErrDeliveryNotFound
	}
	l.Status = status
	if vendorMessageID != "" {
		l.VendorMessageID = vendorMessageID
	}
	return nil
}

func (r *fakeDeliveryRepo) CountPending(_ context.Context, campaignID string) (int, error) {
	n := 0
	for _, l := range r.logs {
		if l.CampaignID == campaignID && l.Status == domain.DeliveryStatusPending {
			n++
		}
	}
	return n, nil
}

type fakeQueue struct {
	dispatches []usecase.DeliveryDispatch
}

func (q *fakeQueue) EnqueueDeliveries(_ context.Context, dispatches []usecase.DeliveryDispatch) error {
	q.dispatches = append(q.dispatches, dispatches...)
	return nil
}

func (q *fakeQueue) Size() int { return len(q.dispatches) }

type fakeGenerator struct {
	reply string
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	return g.reply, g.err
}

type fixture struct {
	uc         *UseCase
	campaigns  *fakeCampaignRepo
	segments   *fakeSegmentRepo
	deliveries *fakeDeliveryRepo
	queue      *fakeQueue
}

func newFixture(gen *fakeGenerator) *fixture {
	customers := &fakeCustomerRepo{customers: []domain.Customer{
		{ID: "c1", Name: "Ada", Email: "ada@example.com"},
		{ID: "c2", Name: "Grace", Email: "grace@example.com"},
		{ID: "c3", Name: "Linus", Email: "linus@example.com"},
	}}
	segments := &fakeSegmentRepo{segments: map[string]*domain.Segment{
		"seg-1": {
			ID:                 "seg-1",
			Name:               "actives",
			Rules:              json.RawMessage(`{"field":"visitCount","operator":"gte","value":1}`),
			MatchedCustomerIDs: []string{"c1", "c3"},
			CustomerCount:      2,
		},
		"seg-empty": {ID: "seg-empty", Name: "nobody", Rules: json.RawMessage(`{"field":"totalSpend","operator":"gt","value":1e9}`)},
	}}

	f := &fixture{
		campaigns:  newFakeCampaignRepo(),
		segments:   segments,
		deliveries: newFakeDeliveryRepo(),
		queue:      &fakeQueue{},
	}
	if gen == nil {
		f.uc = New(f.campaigns, segments, customers, f.deliveries, f.queue, nil, 0, nil)
	} else {
		f.uc = New(f.campaigns, segments, customers, f.deliveries, f.queue, gen, 0, nil)
	}
	return f
}

func TestCreateQueuesSnapshotAudience(t *testing.T) {
	f := newFixture(nil)

	campaign, err := f.uc.Create(context.Background(), "seg-1", "June push", "Hi {name}, we miss you!")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if campaign.Status != domain.CampaignStatusSending {
		t.Fatalf("status: got %q, want %q", campaign.Status, domain.CampaignStatusSending)
	}
	if campaign.AudienceSize != 2 {
		t.Fatalf("audience size: got %d, want 2", campaign.AudienceSize)
	}

	logs, err := f.uc.Logs(context.Background(), campaign.ID, 0, 0)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("delivery logs: got %d, want 2", len(logs))
	}
	for _, l := range logs {
		if l.Status != domain.DeliveryStatusPending {
			t.Fatalf("fresh log %s has status %q", l.ID, l.Status)
		}
	}

	if len(f.queue.dispatches) != 2 {
		t.Fatalf("queued dispatches: got %d, want 2", len(f.queue.dispatches))
	}
	for _, d := range f.queue.dispatches {
		if d.CustomerID == "c1" && d.Message != "Hi Ada, we miss you!" {
			t.Fatalf("personalization failed: %q", d.Message)
		}
		if d.CustomerID == "c2" {
			t.Fatalf("customer outside the snapshot was queued")
		}
	}
}

func TestCreateEmptyAudienceCompletesImmediately(t *testing.T) {
	f := newFixture(nil)

	campaign, err := f.uc.Create(context.Background(), "seg-empty", "Ghost town", "Hello?")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if campaign.Status != domain.CampaignStatusCompleted {
		t.Fatalf("status: got %q, want %q", campaign.Status, domain.CampaignStatusCompleted)
	}
	if len(f.queue.dispatches) != 0 {
		t.Fatalf("nothing should be queued for an empty audience")
	}
	if len(f.deliveries.logs) != 0 {
		t.Fatalf("no delivery logs expected for an empty audience")
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(nil)

	if _, err := f.uc.Create(context.Background(), "seg-1", " ", "msg"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("blank name: got %v", err)
	}
	if _, err := f.uc.Create(context.Background(), "seg-1", "name", ""); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("blank message: got %v", err)
	}
	if _, err := f.uc.Create(context.Background(), "missing", "name", "msg"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("missing segment: got %v", err)
	}
	if f.campaigns.creates != 0 {
		t.Fatalf("invalid requests must not create campaigns, got %d", f.campaigns.creates)
	}
}

func TestHandleReceipt(t *testing.T) {
	f := newFixture(nil)

	campaign, err := f.uc.Create(context.Background(), "seg-1", "push", "hi {name}")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	logs, err := f.uc.Logs(context.Background(), campaign.ID, 0, 0)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}

	target := logs[0]
	if err := f.uc.HandleReceipt(context.Background(), target.ID, domain.DeliveryStatusSent, "vendor-123"); err != nil {
		t.Fatalf("HandleReceipt: %v", err)
	}
	stored := f.deliveries.logs[target.ID]
	if stored.Status != domain.DeliveryStatusSent || stored.VendorMessageID != "vendor-123" {
		t.Fatalf("receipt not applied: %+v", stored)
	}

	// Counters belong to the send path, not receipts.
	after, err := f.uc.Get(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if after.SentCount != 0 || after.FailedCount != 0 {
		t.Fatalf("receipt must not touch counters: %+v", after)
	}

	if err := f.uc.HandleReceipt(context.Background(), target.ID, "delivered", ""); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("unknown receipt status: got %v", err)
	}
	if err := f.uc.HandleReceipt(context.Background(), "missing", domain.DeliveryStatusSent, ""); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("missing delivery: got %v", err)
	}
}

func TestSuggest(t *testing.T) {
	parsed := newFixture(&fakeGenerator{reply: `["Hi {name}!", "Come back, {name}."]`})
	got, err := parsed.uc.Suggest(context.Background(), "win back inactive customers")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 2 || !strings.Contains(got[0], "{name}") {
		t.Fatalf("unexpected suggestions: %v", got)
	}

	lines := newFixture(&fakeGenerator{reply: "Hi {name}!\n\nWe miss you."})
	got, err = lines.uc.Suggest(context.Background(), "objective")
	if err != nil {
		t.Fatalf("Suggest with plain lines: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("line fallback: got %v", got)
	}

	unconfigured := newFixture(nil)
	if _, err := unconfigured.uc.Suggest(context.Background(), "objective"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("unconfigured generator: got %v", err)
	}
}
