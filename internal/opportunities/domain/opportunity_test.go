package domain

import (
	"strings"
	"testing"
	"time"

	"climas_backend/internal/changes"
	"climas_backend/internal/pricing"
	"climas_backend/internal/quotes"
	"climas_backend/platform/apperr"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func validIntake() Intake {
	return Intake{
		ClientName:  "Hotel Costa Azul",
		Contact:     Contact{Phone: "+523312345678", Email: "compras@costaazul.example", ContactPerson: "Laura Méndez"},
		ProjectType: ProjectTypeFullProject,
		Priority:    PriorityHigh,
		SalesRep:    "Carlos Ruiz",
	}
}

func newOpportunity(t *testing.T) *Opportunity {
	t.Helper()
	o, err := New(validIntake(), testNow)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &o
}

// approvedAtClosure drives an opportunity to closure with an approved quotation.
func approvedAtClosure(t *testing.T) *Opportunity {
	t.Helper()
	o := newOpportunity(t)
	mustTransition(t, o, StageQuotationDevelopment)
	pricedQuotation(t, o)
	if _, err := o.SubmitQuotation(1, testNow); err != nil {
		t.Fatalf("SubmitQuotation: %v", err)
	}
	if _, err := o.SendQuotation(1, quotes.DeliveryEmail, "Adjuntamos la cotización", testNow); err != nil {
		t.Fatalf("SendQuotation: %v", err)
	}
	if _, err := o.ApproveQuotation(1, testNow); err != nil {
		t.Fatalf("ApproveQuotation: %v", err)
	}
	mustTransition(t, o, StageClosure)
	return o
}

func pricedQuotation(t *testing.T, o *Opportunity) quotes.Quotation {
	t.Helper()
	if _, err := o.CreateQuotation(nil, testNow); err != nil {
		t.Fatalf("CreateQuotation: %v", err)
	}
	materials := []pricing.Material{
		{Description: "Condensing unit", Quantity: 2, UnitPriceCents: 4500000, Source: pricing.SourceCatalog},
		{Description: "Copper pipe (m)", Quantity: 50, UnitPriceCents: 85000, Source: pricing.SourceManual},
	}
	percentages := pricing.Percentages{Installation: 25, Parts: 15, Travel: 8, Personnel: 12}
	q, err := o.EditQuotation(1, quotes.DraftEdit{Materials: &materials, Percentages: &percentages}, testNow)
	if err != nil {
		t.Fatalf("EditQuotation: %v", err)
	}
	return q
}

func mustTransition(t *testing.T, o *Opportunity, to Stage) {
	t.Helper()
	if err := o.Transition(to, testNow); err != nil {
		t.Fatalf("Transition to %s: %v", to, err)
	}
}

func TestNewStartsAtInitialContact(t *testing.T) {
	o := newOpportunity(t)
	if o.Stage != StageInitialContact || !o.StageEnteredAt.Equal(testNow) {
		t.Fatalf("unexpected initial state: %s at %v", o.Stage, o.StageEnteredAt)
	}
	if o.ID == uuid.Nil {
		t.Fatal("expected an id to be assigned")
	}
}

func TestNewReportsMissingFields(t *testing.T) {
	_, err := New(Intake{ProjectType: "warehouse"}, testNow)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := err.(*apperr.Error).Fields
	for _, f := range []string{"clientName", "projectType", "priority", "salesRep", "contact"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected field %q in %v", f, fields)
		}
	}
}

func TestTransitionAcceptsAnyOtherStage(t *testing.T) {
	for _, from := range Stages {
		for _, to := range Stages {
			if from == to {
				continue
			}
			o := newOpportunity(t)
			o.Stage = from
			entered := testNow.Add(72 * time.Hour)
			if err := o.Transition(to, entered); err != nil {
				t.Fatalf("%s -> %s: %v", from, to, err)
			}
			if o.Stage != to || !o.StageEnteredAt.Equal(entered) {
				t.Fatalf("%s -> %s: stage clock not reset", from, to)
			}
			last := o.StageLog[len(o.StageLog)-1]
			if last.From != from || last.To != to {
				t.Fatalf("unexpected log entry %#v", last)
			}
		}
	}
}

func TestTransitionRejectsSameStageAndUnknownStage(t *testing.T) {
	o := newOpportunity(t)
	if err := o.Transition(StageInitialContact, testNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if err := o.Transition("negotiation", testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(o.StageLog) != 0 {
		t.Fatal("rejected transitions must not be logged")
	}
}

func TestPanelsByStage(t *testing.T) {
	tests := []struct {
		stage Stage
		want  Panels
	}{
		{StageInitialContact, Panels{ClientRegistration: true}},
		{StageInformationValidation, Panels{ChangeManagement: true}},
		{StageQuotationDevelopment, Panels{Quotation: true, ChangeManagement: true}},
		{StageClientReview, Panels{ChangeManagement: true}},
		{StageClosure, Panels{ChangeManagement: true}},
	}
	for _, tt := range tests {
		o := newOpportunity(t)
		o.Stage = tt.stage
		if got := o.Panels(); got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.stage, got, tt.want)
		}
	}
}

func TestQuotationPanelStaysOpenOnceAQuotationExists(t *testing.T) {
	o := newOpportunity(t)
	if _, err := o.CreateQuotation(nil, testNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected gated quotation panel, got %v", err)
	}
	mustTransition(t, o, StageQuotationDevelopment)
	pricedQuotation(t, o)
	mustTransition(t, o, StageInitialContact)
	if !o.Panels().Quotation {
		t.Fatal("quotation panel must stay open once a quotation exists")
	}
}

func TestRegisterClientOnlyAtInitialContact(t *testing.T) {
	o := newOpportunity(t)
	if err := o.RegisterClient("Hotel Costa Azul SA de CV", Contact{Email: "a@b.example"}, testNow); err != nil {
		t.Fatalf("RegisterClient: %v", err)
	}
	mustTransition(t, o, StageInformationValidation)
	err := o.RegisterClient("Other", Contact{Email: "a@b.example"}, testNow)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if o.ClientName != "Hotel Costa Azul SA de CV" {
		t.Fatalf("client name changed by a rejected registration: %s", o.ClientName)
	}
}

func TestGenerateWorkOrderGate(t *testing.T) {
	submit := func(t *testing.T, o *Opportunity) {
		t.Helper()
		if _, err := o.SubmitQuotation(1, testNow); err != nil {
			t.Fatalf("SubmitQuotation: %v", err)
		}
	}
	cases := []struct {
		status  quotes.Status
		advance func(t *testing.T, o *Opportunity)
	}{
		{quotes.StatusDraft, func(t *testing.T, o *Opportunity) {}},
		{quotes.StatusPendingValidation, submit},
		{quotes.StatusSent, func(t *testing.T, o *Opportunity) {
			submit(t, o)
			if _, err := o.SendQuotation(1, quotes.DeliveryWhatsApp, "Hola", testNow); err != nil {
				t.Fatalf("SendQuotation: %v", err)
			}
		}},
	}
	for i, tc := range cases {
		o := newOpportunity(t)
		mustTransition(t, o, StageQuotationDevelopment)
		pricedQuotation(t, o)
		tc.advance(t, o)
		if cur, ok := o.Quotations.Current(); !ok || cur.Status != tc.status {
			t.Fatalf("case %d: setup left quotation at %+v, want %s", i, cur, tc.status)
		}
		mustTransition(t, o, StageClosure)
		if _, err := o.GenerateWorkOrder(WorkOrderInput{}, testNow); !apperr.Is(err, apperr.KindInvalidTransition) {
			t.Fatalf("case %d: expected invalid transition, got %v", i, err)
		}
		if o.WorkOrderGenerated {
			t.Fatalf("case %d: flag set by rejected generation", i)
		}
	}

	o := approvedAtClosure(t)
	mustTransition(t, o, StageClientReview)
	if _, err := o.GenerateWorkOrder(WorkOrderInput{}, testNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("approved outside closure: expected invalid transition, got %v", err)
	}
}

func TestGenerateWorkOrderIsOneWay(t *testing.T) {
	o := approvedAtClosure(t)
	wo, err := o.GenerateWorkOrder(WorkOrderInput{CrewLead: "Miguel"}, testNow)
	if err != nil {
		t.Fatalf("GenerateWorkOrder: %v", err)
	}
	if !o.WorkOrderGenerated || o.WorkOrder == nil || wo.QuotationVersion != 1 {
		t.Fatalf("unexpected work order state: %#v", o.WorkOrder)
	}
	if !strings.HasPrefix(wo.Reference, "OT-2026-") {
		t.Fatalf("unexpected reference %q", wo.Reference)
	}
	if !o.IsClosed() {
		t.Fatal("expected opportunity to be closed")
	}
	if _, err := o.GenerateWorkOrder(WorkOrderInput{}, testNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected second generation to fail, got %v", err)
	}
	if o.Panels().WorkOrder {
		t.Fatal("work order panel must close after generation")
	}
}

func TestChangeManagementClosedAtInitialContact(t *testing.T) {
	o := newOpportunity(t)
	_, err := o.RequestChange(changes.Input{Type: changes.TypeScope, Urgency: changes.UrgencyNormal, Description: "x"}, testNow)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestApproveImpactfulChangeOpensDraftWithSameBaseline(t *testing.T) {
	o := newOpportunity(t)
	mustTransition(t, o, StageQuotationDevelopment)
	before := pricedQuotation(t, o)
	mustTransition(t, o, StageClientReview)

	cr, err := o.RequestChange(changes.Input{
		Type: changes.TypeScope, Urgency: changes.UrgencyUrgent,
		Description: "Extra evaporator", CommercialImpact: true, CostDeltaCents: 2120000,
	}, testNow)
	if err != nil {
		t.Fatalf("RequestChange: %v", err)
	}

	impact, err := o.ChangeImpact(cr.ID)
	if err != nil {
		t.Fatalf("ChangeImpact: %v", err)
	}
	if impact.ProjectedTotalCents != 23320000 {
		t.Fatalf("unexpected projection %#v", impact)
	}

	res, err := o.ApproveChange(cr.ID, "ok", testNow)
	if err != nil {
		t.Fatalf("ApproveChange: %v", err)
	}
	if res.Revision == nil || res.Revision.Version != 2 || res.Revision.Status != quotes.StatusDraft {
		t.Fatalf("expected v2 draft, got %#v", res.Revision)
	}
	if res.Request.QuotationVersion == nil || *res.Request.QuotationVersion != 2 {
		t.Fatalf("expected request to point at v2, got %#v", res.Request)
	}
	if res.Revision.Breakdown.TotalCents != before.Breakdown.TotalCents || len(res.Revision.Materials) != len(before.Materials) {
		t.Fatalf("revision baseline differs from the superseded version")
	}
	old, _ := o.Quotations.Get(1)
	if old.Status != quotes.StatusSuperseded {
		t.Fatalf("expected v1 superseded, got %s", old.Status)
	}
}

func TestApproveChangeWithoutImpactKeepsVersions(t *testing.T) {
	o := newOpportunity(t)
	mustTransition(t, o, StageQuotationDevelopment)
	pricedQuotation(t, o)
	cr, _ := o.RequestChange(changes.Input{Type: changes.TypeTime, Urgency: changes.UrgencyNormal, Description: "Start one week later"}, testNow)

	res, err := o.ApproveChange(cr.ID, "", testNow)
	if err != nil {
		t.Fatalf("ApproveChange: %v", err)
	}
	if res.Revision != nil || o.Quotations.Len() != 1 {
		t.Fatalf("no version must be created, have %d", o.Quotations.Len())
	}
}

func TestApproveImpactfulChangeWithoutQuotation(t *testing.T) {
	o := newOpportunity(t)
	mustTransition(t, o, StageInformationValidation)
	cr, _ := o.RequestChange(changes.Input{
		Type: changes.TypeCost, Urgency: changes.UrgencyNormal,
		Description: "Premium units", CommercialImpact: true, CostDeltaCents: 1000,
	}, testNow)

	if _, err := o.ApproveChange(cr.ID, "", testNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if got, _ := o.Changes.Get(cr.ID); got.Status != changes.StatusPending {
		t.Fatalf("request must stay pending, got %s", got.Status)
	}
}

func TestChangeLedgerSurvivesRegression(t *testing.T) {
	o := newOpportunity(t)
	mustTransition(t, o, StageClientReview)
	cr, _ := o.RequestChange(changes.Input{Type: changes.TypeTechnical, Urgency: changes.UrgencyNormal, Description: "Swap to inverter units"}, testNow)
	mustTransition(t, o, StageQuotationDevelopment)
	if _, err := o.RejectChange(cr.ID, "out of budget", testNow); err != nil {
		t.Fatalf("RejectChange after regression: %v", err)
	}
	if len(o.Changes.List()) != 1 {
		t.Fatal("ledger entries must survive stage transitions")
	}
}

func TestLogCommunicationAndDocuments(t *testing.T) {
	o := newOpportunity(t)
	c, err := o.LogCommunication(Communication{Channel: ChannelMeeting, Subject: "Site visit", Author: "Carlos"}, testNow)
	if err != nil {
		t.Fatalf("LogCommunication: %v", err)
	}
	if c.ID == uuid.Nil || !c.At.Equal(testNow) {
		t.Fatalf("unexpected communication %#v", c)
	}
	if _, err := o.LogCommunication(Communication{Channel: "fax"}, testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := o.AttachDocument(Document{Name: "plano.pdf", FileKey: "opportunities/x/plano.pdf"}, testNow); err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}
	if len(o.Communications) != 1 || len(o.Documents) != 1 {
		t.Fatalf("unexpected logs: %d communications, %d documents", len(o.Communications), len(o.Documents))
	}
}
