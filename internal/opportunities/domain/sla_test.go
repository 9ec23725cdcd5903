package domain

import (
	"testing"
	"time"
)

func TestSLAForDuration(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		in   time.Duration
		want SLAStatus
	}{
		{0, SLANominal},
		{3*day + 23*time.Hour, SLANominal},
		{4 * day, SLAWarning},
		{7*day + 12*time.Hour, SLAWarning},
		{8 * day, SLACritical},
		{30 * day, SLACritical},
	}
	for _, tt := range tests {
		if got := SLAForDuration(tt.in); got != tt.want {
			t.Errorf("SLAForDuration(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSLAResetsOnTransition(t *testing.T) {
	o := newOpportunity(t)
	later := testNow.Add(10 * 24 * time.Hour)
	if o.SLA(later) != SLACritical {
		t.Fatalf("expected critical after ten days")
	}
	if err := o.Transition(StageInformationValidation, later); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if o.SLA(later.Add(time.Hour)) != SLANominal {
		t.Fatalf("expected nominal right after a transition")
	}
	if o.StageDuration(later.Add(-time.Hour)) != 0 {
		t.Fatal("clock skew must clamp to zero")
	}
}
