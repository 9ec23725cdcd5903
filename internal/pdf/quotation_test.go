package pdf

import (
	"strings"
	"testing"

	"climas_backend/internal/pricing"
)

func sampleData(t *testing.T) QuotationData {
	t.Helper()
	materials := []pricing.Material{
		{Description: "Mini split <2TR>", Quantity: 2, UnitPriceCents: 4500000},
		{Description: "Tubería de cobre", Quantity: 50, UnitPriceCents: 85000},
	}
	pct := pricing.Percentages{Installation: 25, Parts: 15, Travel: 8, Personnel: 12.5}
	b, err := pricing.ComputeBreakdown(materials, pct)
	if err != nil {
		t.Fatalf("ComputeBreakdown: %v", err)
	}
	return QuotationData{
		Reference:   "COT-3F2A-V2",
		Version:     2,
		Status:      "sent",
		IssuedAt:    "04/05/2026",
		ClientName:  "Hotel Mirador",
		Email:       "compras@mirador.mx",
		ProjectType: "full_project",
		SalesRep:    "rep-1",
		Warranty:    "12_months",
		VerifyURL:   "https://climas.example/q/abc/v2",
		Materials:   materials,
		Percentages: pct,
		Breakdown:   b,
	}
}

func TestRenderQuotationHTML(t *testing.T) {
	out, err := RenderQuotationHTML(sampleData(t))
	if err != nil {
		t.Fatalf("RenderQuotationHTML: %v", err)
	}
	html := string(out)

	for _, want := range []string{"COT-3F2A-V2", "Hotel Mirador", "Versión 2", "12.5%", "data:image/png;base64,", "MXN"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered document lacks %q", want)
		}
	}
	if strings.Contains(html, "<2TR>") {
		t.Error("material descriptions must be escaped")
	}
}

func TestRenderWithoutVerifyURLOmitsQRCode(t *testing.T) {
	data := sampleData(t)
	data.VerifyURL = ""
	out, err := RenderQuotationHTML(data)
	if err != nil {
		t.Fatalf("RenderQuotationHTML: %v", err)
	}
	if strings.Contains(string(out), "data:image/png") {
		t.Fatal("qr code rendered without a verify url")
	}
}

func TestFormatMXNKeepsCents(t *testing.T) {
	got := FormatMXN(2120050)
	if !strings.HasPrefix(got, "$") || !strings.HasSuffix(got, "00.50 MXN") {
		t.Fatalf("FormatMXN = %q", got)
	}
}
