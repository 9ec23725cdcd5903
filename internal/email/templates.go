package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"climas_backend/internal/pdf"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type quotationEmailData struct {
	baseEmailData
	ContactPerson  string
	ClientName     string
	Reference      string
	Version        int
	TotalFormatted string
	Message        string
}

func renderQuotationEmail(q QuotationEmail) (string, error) {
	greeting := q.ContactPerson
	if greeting == "" {
		greeting = q.ClientName
	}
	return renderEmailTemplate("quotation.html", quotationEmailData{
		baseEmailData: baseEmailData{
			Title:      "Su cotización está lista",
			Heading:    "Su cotización está lista",
			Subheading: q.ClientName,
		},
		ContactPerson:  greeting,
		ClientName:     q.ClientName,
		Reference:      q.Reference,
		Version:        q.Version,
		TotalFormatted: pdf.FormatMXN(q.TotalCents),
		Message:        q.Message,
	})
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
