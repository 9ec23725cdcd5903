package changes

import (
	"testing"
	"time"

	"climas_backend/internal/pricing"
	"climas_backend/platform/apperr"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC)

func validInput() Input {
	return Input{
		Type:             TypeScope,
		Urgency:          UrgencyUrgent,
		Description:      "Add a third evaporator in the meeting room",
		Justification:    "Client expanded the office",
		CommercialImpact: true,
		CostDeltaCents:   2500000,
		TimeDelta:        "+5 days",
		RequestedBy:      "ventas@climas.example",
	}
}

func TestRecordAppendsPendingRequest(t *testing.T) {
	var l Ledger
	oppID := uuid.New()
	cr, err := l.Record(oppID, validInput(), testNow)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if cr.Status != StatusPending || cr.OpportunityID != oppID || !cr.RequestedAt.Equal(testNow) {
		t.Fatalf("unexpected request: %#v", cr)
	}
	if len(l.List()) != 1 || len(l.Pending()) != 1 {
		t.Fatalf("expected one pending request")
	}
}

func TestRecordValidatesEveryField(t *testing.T) {
	var l Ledger
	_, err := l.Record(uuid.New(), Input{
		Type:           "budget",
		Urgency:        "asap",
		Description:    "  ",
		CostDeltaCents: 100,
	}, testNow)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := err.(*apperr.Error).Fields
	for _, f := range []string{"type", "urgency", "description", "costDeltaCents"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected field %q in %v", f, fields)
		}
	}
	if len(l.List()) != 0 {
		t.Fatal("rejected request must not be recorded")
	}
}

func TestDecisionHappensExactlyOnce(t *testing.T) {
	var l Ledger
	cr, _ := l.Record(uuid.New(), validInput(), testNow)

	version := 2
	approved, err := l.Approve(cr.ID, "ok", &version, testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != StatusApproved || approved.DecidedAt == nil || approved.QuotationVersion == nil || *approved.QuotationVersion != 2 {
		t.Fatalf("unexpected approved request: %#v", approved)
	}

	if _, err := l.Reject(cr.ID, "changed my mind", testNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition on second decision, got %v", err)
	}
	if _, err := l.Approve(cr.ID, "", nil, testNow); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition on second approval, got %v", err)
	}
	if len(l.Pending()) != 0 {
		t.Fatal("decided request must leave the pending list")
	}
}

func TestRejectUnknownRequest(t *testing.T) {
	var l Ledger
	if _, err := l.Reject(uuid.New(), "", testNow); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProjectImpact(t *testing.T) {
	base := pricing.Breakdown{TotalCents: 21200000}
	impact := ProjectImpact(base, 2120000)
	if impact.ProjectedTotalCents != 23320000 {
		t.Fatalf("expected projected total 23320000, got %d", impact.ProjectedTotalCents)
	}
	if impact.DeltaRatio != 0.1 {
		t.Fatalf("expected ratio 0.1, got %v", impact.DeltaRatio)
	}
	if impact.ProjectedAdvanceCents+impact.ProjectedProgressCents != impact.ProjectedTotalCents {
		t.Fatalf("projected split does not add up: %#v", impact)
	}

	zero := ProjectImpact(pricing.Breakdown{}, 500)
	if zero.DeltaRatio != 0 || zero.ProjectedTotalCents != 500 {
		t.Fatalf("unexpected projection on empty base: %#v", zero)
	}
}
