package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"climas_backend/internal/catalog"
	"climas_backend/internal/events"
	"climas_backend/internal/opportunities/domain"
	"climas_backend/internal/opportunities/repository"
	"climas_backend/internal/opportunities/transport"
	"climas_backend/platform/apperr"
	"climas_backend/platform/logger"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

// racingStore lets another writer win the first compare-and-swap.
type racingStore struct {
	*repository.MemoryStore
	once sync.Once
}

func (s *racingStore) CompareAndSwap(ctx context.Context, opp *domain.Opportunity, expected int64) error {
	s.once.Do(func() {
		other, err := s.MemoryStore.Load(ctx, opp.ID)
		if err != nil {
			panic(err)
		}
		if err := s.MemoryStore.CompareAndSwap(ctx, other, expected); err != nil {
			panic(err)
		}
	})
	return s.MemoryStore.CompareAndSwap(ctx, opp, expected)
}

type fakePhone struct{}

func (fakePhone) E164(in string) (string, error) {
	if in == "bad" {
		return "", fmt.Errorf("invalid")
	}
	return "+52" + in, nil
}

func newTestService(t *testing.T, store repository.Store) (*Service, *recordingBus) {
	t.Helper()
	bus := &recordingBus{}
	svc := New(store, bus, logger.Discard())
	svc.SetClock(func() time.Time { return testNow })
	return svc, bus
}

func createOpportunity(t *testing.T, svc *Service) uuid.UUID {
	t.Helper()
	resp, err := svc.Create(context.Background(), transport.CreateOpportunityRequest{
		ClientName:  "Hotel Mirador",
		Contact:     transport.ContactRequest{Email: "Compras@Mirador.mx", ContactPerson: "Ana"},
		ProjectType: "full_project",
		Priority:    "high",
		SalesRep:    "rep-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return resp.ID
}

func TestCreatePublishesAndNormalizes(t *testing.T) {
	svc, bus := newTestService(t, repository.NewMemoryStore())
	svc.SetPhoneNormalizer(fakePhone{})

	resp, err := svc.Create(context.Background(), transport.CreateOpportunityRequest{
		ClientName:  "  Hotel   Mirador ",
		Contact:     transport.ContactRequest{Phone: "5512345678", Email: "Compras@Mirador.mx"},
		ProjectType: "single_piece",
		Priority:    "low",
		SalesRep:    "rep-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Stage != string(domain.StageInitialContact) || resp.Revision != 1 {
		t.Fatalf("unexpected stage/revision: %s/%d", resp.Stage, resp.Revision)
	}
	if resp.ClientName != "Hotel Mirador" {
		t.Fatalf("client name not sanitized: %q", resp.ClientName)
	}
	if resp.Contact.Phone != "+525512345678" || resp.Contact.Email != "compras@mirador.mx" {
		t.Fatalf("contact not normalized: %+v", resp.Contact)
	}
	if !resp.Panels.ClientRegistration || resp.Panels.ChangeManagement {
		t.Fatalf("unexpected panels: %+v", resp.Panels)
	}
	if got := bus.names(); len(got) != 1 || got[0] != "opportunities.created" {
		t.Fatalf("events = %v", got)
	}
}

func TestCreateRejectsInvalidPhone(t *testing.T) {
	svc, _ := newTestService(t, repository.NewMemoryStore())
	svc.SetPhoneNormalizer(fakePhone{})

	_, err := svc.Create(context.Background(), transport.CreateOpportunityRequest{
		ClientName:  "Hotel",
		Contact:     transport.ContactRequest{Phone: "bad"},
		ProjectType: "full_project",
		Priority:    "low",
		SalesRep:    "rep-1",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUnknownOpportunity(t *testing.T) {
	svc, _ := newTestService(t, repository.NewMemoryStore())
	_, err := svc.Transition(context.Background(), uuid.New(), transport.TransitionRequest{Stage: "closure"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Get(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found from Get, got %v", err)
	}
}

func TestQuotationLifecycleToWorkOrder(t *testing.T) {
	ctx := context.Background()
	svc, bus := newTestService(t, repository.NewMemoryStore())
	id := createOpportunity(t, svc)

	if _, err := svc.CreateQuotation(ctx, id, transport.CreateQuotationRequest{}); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("quotation panel must be closed at initial contact, got %v", err)
	}
	if _, err := svc.Transition(ctx, id, transport.TransitionRequest{Stage: "quotation_development"}); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	q, err := svc.CreateQuotation(ctx, id, transport.CreateQuotationRequest{})
	if err != nil {
		t.Fatalf("CreateQuotation: %v", err)
	}
	materials := []transport.MaterialRequest{
		{Description: "Mini split 2TR", Quantity: 2, UnitPriceCents: 4500000},
		{Description: "Copper pipe", Quantity: 50, UnitPriceCents: 85000},
	}
	q, err = svc.UpdateQuotationDraft(ctx, id, q.Version, transport.UpdateQuotationRequest{
		Materials:   &materials,
		Percentages: &transport.PercentagesRequest{Installation: 25, Parts: 15, Travel: 8, Personnel: 12},
	})
	if err != nil {
		t.Fatalf("UpdateQuotationDraft: %v", err)
	}
	if q.Breakdown.TotalCents != 21200000 || q.Breakdown.AdvanceCents != 6360000 {
		t.Fatalf("unexpected breakdown: %+v", q.Breakdown)
	}
	if q.Materials[0].Source != "manual" || q.Materials[1].LineTotalCents != 4250000 {
		t.Fatalf("unexpected materials: %+v", q.Materials)
	}

	if _, err := svc.SubmitQuotation(ctx, id, q.Version); err != nil {
		t.Fatalf("SubmitQuotation: %v", err)
	}
	if _, err := svc.SendQuotation(ctx, id, q.Version, transport.SendQuotationRequest{Channel: "email", Message: "Adjuntamos la propuesta"}); err != nil {
		t.Fatalf("SendQuotation: %v", err)
	}
	if _, err := svc.ApproveQuotation(ctx, id, q.Version); err != nil {
		t.Fatalf("ApproveQuotation: %v", err)
	}
	if _, err := svc.Transition(ctx, id, transport.TransitionRequest{Stage: "closure"}); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	wo, err := svc.GenerateWorkOrder(ctx, id, transport.GenerateWorkOrderRequest{CrewLead: "Luis"})
	if err != nil {
		t.Fatalf("GenerateWorkOrder: %v", err)
	}
	if wo.QuotationVersion != 1 {
		t.Fatalf("work order version = %d", wo.QuotationVersion)
	}
	if _, err := svc.GenerateWorkOrder(ctx, id, transport.GenerateWorkOrderRequest{}); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("second work order must fail, got %v", err)
	}

	got, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Closed || !got.WorkOrderGenerated || got.Panels.WorkOrder {
		t.Fatalf("unexpected closure state: closed=%v generated=%v panel=%v", got.Closed, got.WorkOrderGenerated, got.Panels.WorkOrder)
	}

	want := []string{
		"opportunities.created",
		"opportunities.stage.changed",
		"quotes.sent",
		"quotes.approved",
		"opportunities.stage.changed",
		"opportunities.work_order.generated",
	}
	names := bus.names()
	if len(names) != len(want) {
		t.Fatalf("events = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("events[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestSendQuotationEventCarriesContact(t *testing.T) {
	ctx := context.Background()
	svc, bus := newTestService(t, repository.NewMemoryStore())
	id := createOpportunity(t, svc)
	version := sentQuotation(t, svc, id)

	var sent *events.QuotationSent
	bus.mu.Lock()
	for _, e := range bus.events {
		if ev, ok := e.(events.QuotationSent); ok {
			sent = &ev
		}
	}
	bus.mu.Unlock()
	if sent == nil {
		t.Fatal("no quotes.sent event")
	}
	if sent.Version != version || sent.Email != "compras@mirador.mx" || sent.Channel != "whatsapp" || sent.TotalCents != 1000000 {
		t.Fatalf("unexpected event: %+v", sent)
	}

	h, err := svc.QuotationHistory(ctx, id)
	if err != nil {
		t.Fatalf("QuotationHistory: %v", err)
	}
	if len(h.Items) != 1 || h.CurrentVersion == nil || *h.CurrentVersion != version {
		t.Fatalf("unexpected history: %+v", h)
	}
}

func sentQuotation(t *testing.T, svc *Service, id uuid.UUID) int {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Transition(ctx, id, transport.TransitionRequest{Stage: "quotation_development"}); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	q, err := svc.CreateQuotation(ctx, id, transport.CreateQuotationRequest{})
	if err != nil {
		t.Fatalf("CreateQuotation: %v", err)
	}
	materials := []transport.MaterialRequest{{Description: "Evaporadora", Quantity: 1, UnitPriceCents: 1000000}}
	if _, err := svc.UpdateQuotationDraft(ctx, id, q.Version, transport.UpdateQuotationRequest{Materials: &materials}); err != nil {
		t.Fatalf("UpdateQuotationDraft: %v", err)
	}
	if _, err := svc.SubmitQuotation(ctx, id, q.Version); err != nil {
		t.Fatalf("SubmitQuotation: %v", err)
	}
	if _, err := svc.SendQuotation(ctx, id, q.Version, transport.SendQuotationRequest{Channel: "whatsapp", Message: "Hola"}); err != nil {
		t.Fatalf("SendQuotation: %v", err)
	}
	return q.Version
}

func TestImpactfulChangeOpensRevision(t *testing.T) {
	ctx := context.Background()
	svc, bus := newTestService(t, repository.NewMemoryStore())
	id := createOpportunity(t, svc)
	sentQuotation(t, svc, id)

	cr, err := svc.RequestChange(ctx, id, "", transport.RequestChangeRequest{
		Type:             "scope",
		Urgency:          "normal",
		Description:      "Add one more unit",
		CommercialImpact: true,
		CostDeltaCents:   250000,
	})
	if err != nil {
		t.Fatalf("RequestChange: %v", err)
	}
	if cr.RequestedBy != "rep-1" {
		t.Fatalf("RequestedBy = %q, want sales rep fallback", cr.RequestedBy)
	}

	impact, err := svc.ChangeImpact(ctx, id, cr.ID)
	if err != nil {
		t.Fatalf("ChangeImpact: %v", err)
	}
	if impact.ProjectedTotalCents != 1250000 {
		t.Fatalf("projected total = %d", impact.ProjectedTotalCents)
	}

	approval, err := svc.ApproveChange(ctx, id, cr.ID, transport.DecideChangeRequest{Note: "ok"})
	if err != nil {
		t.Fatalf("ApproveChange: %v", err)
	}
	if approval.Revision == nil || approval.Revision.Version != 2 || approval.Revision.Status != "draft" {
		t.Fatalf("expected v2 draft, got %+v", approval.Revision)
	}
	if approval.ChangeRequest.QuotationVersion == nil || *approval.ChangeRequest.QuotationVersion != 2 {
		t.Fatalf("change request not linked to v2")
	}

	v1, err := svc.Quotation(ctx, id, 1)
	if err != nil {
		t.Fatalf("Quotation: %v", err)
	}
	if v1.Status != "superseded" {
		t.Fatalf("v1 status = %s", v1.Status)
	}

	if _, err := svc.RejectChange(ctx, id, cr.ID, transport.DecideChangeRequest{}); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("deciding twice must fail, got %v", err)
	}
	pending, err := svc.ChangeRequests(ctx, id, true)
	if err != nil {
		t.Fatalf("ChangeRequests: %v", err)
	}
	if len(pending.Items) != 0 {
		t.Fatalf("pending = %d", len(pending.Items))
	}

	names := bus.names()
	if names[len(names)-1] != "changes.decided" {
		t.Fatalf("last event = %s", names[len(names)-1])
	}
}

func TestImportMaterialsFromCatalog(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, repository.NewMemoryStore())
	id := createOpportunity(t, svc)
	if _, err := svc.Transition(ctx, id, transport.TransitionRequest{Stage: "quotation_development"}); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	q, err := svc.CreateQuotation(ctx, id, transport.CreateQuotationRequest{})
	if err != nil {
		t.Fatalf("CreateQuotation: %v", err)
	}

	req := transport.ImportMaterialsRequest{
		Catalog:      []transport.CatalogLineRequest{{Code: "ms-24", Quantity: 2}},
		PlanAnalysis: []transport.MaterialRequest{{Description: "Ducto", Quantity: 3, UnitPriceCents: 10000}},
	}
	if _, err := svc.ImportMaterials(ctx, id, q.Version, req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error without catalog, got %v", err)
	}

	cat, err := catalog.Parse(strings.NewReader("entries:\n  - code: MS-24\n    description: Mini split 2TR\n    category: equipos\n    unit: pieza\n    unit_price_cents: 4500000\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	svc.SetCatalog(cat)

	got, err := svc.ImportMaterials(ctx, id, q.Version, req)
	if err != nil {
		t.Fatalf("ImportMaterials: %v", err)
	}
	if len(got.Materials) != 2 {
		t.Fatalf("materials = %d", len(got.Materials))
	}
	if got.Materials[0].Source != "catalog" || got.Materials[1].Source != "plan_analysis" {
		t.Fatalf("unexpected sources: %+v", got.Materials)
	}
	if got.Breakdown.SubtotalCents != 9030000 {
		t.Fatalf("subtotal = %d", got.Breakdown.SubtotalCents)
	}
}

func TestLostCompareAndSwapIsConflict(t *testing.T) {
	store := &racingStore{MemoryStore: repository.NewMemoryStore()}
	svc, bus := newTestService(t, store)
	id := createOpportunity(t, svc)

	_, err := svc.Transition(context.Background(), id, transport.TransitionRequest{Stage: "closure"})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	got, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stage != string(domain.StageInitialContact) {
		t.Fatalf("losing write must not be applied, stage = %s", got.Stage)
	}
	for _, name := range bus.names() {
		if name == "opportunities.stage.changed" {
			t.Fatal("no event may be published for a rejected write")
		}
	}
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	svc, _ := newTestService(t, repository.NewMemoryStore())
	id := createOpportunity(t, svc)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.LogCommunication(context.Background(), id, "agent", transport.LogCommunicationRequest{
				Channel: "phone",
				Subject: fmt.Sprintf("call %d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("LogCommunication: %v", err)
		}
	}

	got, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Communications) != writers || got.Revision != writers+1 {
		t.Fatalf("communications=%d revision=%d", len(got.Communications), got.Revision)
	}
	if n := svc.locks.size(); n != 0 {
		t.Fatalf("lock entries leaked: %d", n)
	}
}

func TestLockHonoursContext(t *testing.T) {
	k := newKeyedMutex()
	id := uuid.New()
	unlock, err := k.Lock(context.Background(), id)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, id)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict while lock is held, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("conflict must wrap the context error, got %v", err)
	}
	unlock()
	if k.size() != 0 {
		t.Fatalf("entries = %d", k.size())
	}
}

func TestListFiltersByStage(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, repository.NewMemoryStore())
	a := createOpportunity(t, svc)
	createOpportunity(t, svc)
	if _, err := svc.Transition(ctx, a, transport.TransitionRequest{Stage: "client_review"}); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	list, err := svc.List(ctx, transport.ListOpportunitiesRequest{Stage: "client_review"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != a || list.Items[0].SLA != "nominal" {
		t.Fatalf("unexpected list: %+v", list.Items)
	}
	if _, err := svc.List(ctx, transport.ListOpportunitiesRequest{Stage: "won"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
