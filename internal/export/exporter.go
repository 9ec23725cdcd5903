// Package export renders quotation versions to PDF and stores them in object
// storage under a key derived from the opportunity and version.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"climas_backend/internal/adapters/storage"
	"climas_backend/internal/opportunities/domain"
	"climas_backend/internal/pdf"
	"climas_backend/internal/quotes"
	"climas_backend/platform/logger"
)

const pdfContentType = "application/pdf"

// Converter turns an HTML document into a PDF.
type Converter interface {
	ConvertHTML(ctx context.Context, indexHTML []byte, opts pdf.ConvertOpts) ([]byte, error)
}

// Exporter renders, converts and uploads quotation documents.
type Exporter struct {
	converter     Converter
	store         storage.ObjectStore
	bucket        string
	publicBaseURL string
	log           *logger.Logger
}

// New creates an exporter writing into bucket. publicBaseURL is the origin
// encoded in the document's QR code; empty disables the code.
func New(converter Converter, store storage.ObjectStore, bucket, publicBaseURL string, log *logger.Logger) *Exporter {
	return &Exporter{
		converter:     converter,
		store:         store,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log,
	}
}

// ExportQuotation renders q to PDF, uploads it and returns its key and a
// presigned download URL.
func (e *Exporter) ExportQuotation(ctx context.Context, opp domain.Opportunity, q quotes.Quotation) (string, string, error) {
	html, err := pdf.RenderQuotationHTML(e.documentData(opp, q))
	if err != nil {
		return "", "", err
	}
	doc, err := e.converter.ConvertHTML(ctx, html, pdf.LetterOpts())
	if err != nil {
		return "", "", fmt.Errorf("convert quotation: %w", err)
	}

	key := storage.QuotationPDFKey(opp.ID, q.Version)
	if err := e.store.Put(ctx, e.bucket, key, pdfContentType, bytes.NewReader(doc), int64(len(doc))); err != nil {
		return "", "", err
	}
	e.log.WithContext(ctx).Info("quotation exported", "opportunityId", opp.ID, "version", q.Version, "bytes", len(doc))

	u, err := e.store.PresignDownload(ctx, e.bucket, key)
	if err != nil {
		return key, "", err
	}
	return key, u.URL, nil
}

func (e *Exporter) documentData(opp domain.Opportunity, q quotes.Quotation) pdf.QuotationData {
	data := pdf.QuotationData{
		Reference:     quotes.Reference(opp.ID, q.Version),
		Version:       q.Version,
		Status:        string(q.Status),
		IssuedAt:      q.CreatedAt.Format("02/01/2006"),
		ClientName:    opp.ClientName,
		ContactPerson: opp.Contact.ContactPerson,
		Email:         opp.Contact.Email,
		Phone:         opp.Contact.Phone,
		ProjectType:   string(opp.ProjectType),
		SalesRep:      opp.SalesRep,
		Warranty:      string(q.Warranty),
		Materials:     q.Materials,
		Percentages:   q.Percentages,
		Breakdown:     q.Breakdown,
	}
	if e.publicBaseURL != "" {
		data.VerifyURL = fmt.Sprintf("%s/opportunities/%s/quotations/%d", e.publicBaseURL, opp.ID, q.Version)
	}
	return data
}
