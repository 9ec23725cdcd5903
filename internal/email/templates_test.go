package email

import (
	"context"
	"strings"
	"testing"
)

func TestRenderQuotationEmail(t *testing.T) {
	html, err := renderQuotationEmail(QuotationEmail{
		To:            "compras@mirador.mx",
		ClientName:    "Hotel Mirador",
		ContactPerson: "Laura Ríos",
		Reference:     "COT-3F2A9C1B-V2",
		Version:       2,
		TotalCents:    1250000,
		Message:       "Quedo atento <b>a sus comentarios</b>",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Hola Laura Ríos", "COT-3F2A9C1B-V2", "versión 2", "12,500.00"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered email missing %q", want)
		}
	}
	if strings.Contains(html, "<b>a sus") {
		t.Error("message must be escaped")
	}
}

func TestRenderQuotationEmailFallsBackToClientName(t *testing.T) {
	html, err := renderQuotationEmail(QuotationEmail{ClientName: "Plaza Norte", Reference: "COT-1", Version: 1})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "Hola Plaza Norte") {
		t.Fatal("expected greeting by client name")
	}
}

func TestQuotationSubject(t *testing.T) {
	got := quotationSubject(QuotationEmail{Reference: "COT-1-V1", ClientName: "Plaza Norte"})
	if got != "Cotización COT-1-V1 para Plaza Norte" {
		t.Fatalf("subject = %q", got)
	}
}

func TestNoopSender(t *testing.T) {
	if err := (NoopSender{}).SendQuotationEmail(context.Background(), QuotationEmail{}); err != nil {
		t.Fatal(err)
	}
}
