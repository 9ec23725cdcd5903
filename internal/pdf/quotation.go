package pdf

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"strconv"

	"climas_backend/internal/pricing"

	"github.com/skip2/go-qrcode"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

var quotationTemplate = template.Must(template.New("quotation.html").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	ParseFS(templateFS, "templates/quotation.html"))

var printer = message.NewPrinter(language.MustParse("es-MX"))

// QuotationData is everything printed on a quotation document.
type QuotationData struct {
	Reference     string
	Version       int
	Status        string
	IssuedAt      string
	ClientName    string
	ContactPerson string
	Email         string
	Phone         string
	ProjectType   string
	SalesRep      string
	Warranty      string
	VerifyURL     string

	Materials   []pricing.Material
	Percentages pricing.Percentages
	Breakdown   pricing.Breakdown
}

type lineView struct {
	Description string
	Quantity    int64
	UnitPrice   string
	Total       string
}

type quotationView struct {
	QuotationData
	QRCode template.URL
	Lines  []lineView

	Subtotal, Installation, Parts, Travel, Personnel string
	Total, Advance, Progress                         string

	InstallationPct, PartsPct, TravelPct, PersonnelPct string
}

// RenderQuotationHTML renders the quotation document. When VerifyURL is set
// a QR code pointing at it is embedded as a data URI.
func RenderQuotationHTML(data QuotationData) ([]byte, error) {
	view := quotationView{
		QuotationData:   data,
		Lines:           make([]lineView, 0, len(data.Materials)),
		Subtotal:        FormatMXN(data.Breakdown.SubtotalCents),
		Installation:    FormatMXN(data.Breakdown.InstallationCents),
		Parts:           FormatMXN(data.Breakdown.PartsCents),
		Travel:          FormatMXN(data.Breakdown.TravelCents),
		Personnel:       FormatMXN(data.Breakdown.PersonnelCents),
		Total:           FormatMXN(data.Breakdown.TotalCents),
		Advance:         FormatMXN(data.Breakdown.AdvanceCents),
		Progress:        FormatMXN(data.Breakdown.ProgressCents),
		InstallationPct: formatPct(data.Percentages.Installation),
		PartsPct:        formatPct(data.Percentages.Parts),
		TravelPct:       formatPct(data.Percentages.Travel),
		PersonnelPct:    formatPct(data.Percentages.Personnel),
	}
	for _, m := range data.Materials {
		view.Lines = append(view.Lines, lineView{
			Description: m.Description,
			Quantity:    m.Quantity,
			UnitPrice:   FormatMXN(m.UnitPriceCents),
			Total:       FormatMXN(m.Quantity * m.UnitPriceCents),
		})
	}

	if data.VerifyURL != "" {
		png, err := qrcode.Encode(data.VerifyURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode qr code: %w", err)
		}
		view.QRCode = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	}

	var buf bytes.Buffer
	if err := quotationTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute quotation template: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatMXN formats minor units as Mexican pesos.
func FormatMXN(cents int64) string {
	return printer.Sprintf("$%.2f MXN", float64(cents)/100)
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
