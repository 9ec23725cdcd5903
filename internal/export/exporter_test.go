package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"climas_backend/internal/adapters/storage"
	"climas_backend/internal/opportunities/domain"
	"climas_backend/internal/pdf"
	"climas_backend/internal/pricing"
	"climas_backend/internal/quotes"
	"climas_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeConverter struct {
	html []byte
	err  error
}

func (f *fakeConverter) ConvertHTML(_ context.Context, html []byte, _ pdf.ConvertOpts) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

type memoryObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryObjects) PresignUpload(_ context.Context, bucket, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://s3.local/" + bucket + "/" + key + "?put", FileKey: key}, nil
}

func (m *memoryObjects) PresignDownload(_ context.Context, bucket, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://s3.local/" + bucket + "/" + key, FileKey: key, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (m *memoryObjects) Put(_ context.Context, bucket, key, contentType string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+key] = data
	m.types[bucket+"/"+key] = contentType
	return nil
}

func (m *memoryObjects) EnsureBucketExists(context.Context, string) error { return nil }

func sample(t *testing.T) (domain.Opportunity, quotes.Quotation) {
	t.Helper()
	opp := domain.Opportunity{
		ID:          uuid.MustParse("3f2a9c1b-0000-4000-8000-000000000001"),
		ClientName:  "Hotel Mirador",
		ProjectType: domain.ProjectTypeFullProject,
		SalesRep:    "rep-1",
	}
	materials := []pricing.Material{{Description: "Condensadora", Quantity: 1, UnitPriceCents: 100000}}
	b, err := pricing.ComputeBreakdown(materials, pricing.Percentages{})
	if err != nil {
		t.Fatalf("ComputeBreakdown: %v", err)
	}
	q := quotes.Quotation{
		OpportunityID: opp.ID,
		Version:       2,
		Status:        quotes.StatusSent,
		Materials:     materials,
		Warranty:      quotes.Warranty12Months,
		Breakdown:     b,
		CreatedAt:     time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
	}
	return opp, q
}

func TestExportQuotationUploadsUnderVersionKey(t *testing.T) {
	conv := &fakeConverter{}
	objs := newMemoryObjects()
	e := New(conv, objs, "quotation-pdfs", "https://app.climas.mx/", logger.Discard())
	opp, q := sample(t)

	key, url, err := e.ExportQuotation(context.Background(), opp, q)
	if err != nil {
		t.Fatalf("ExportQuotation: %v", err)
	}
	wantKey := "opportunities/3f2a9c1b-0000-4000-8000-000000000001/quotations/v2.pdf"
	if key != wantKey {
		t.Fatalf("key = %s", key)
	}
	if !strings.HasSuffix(url, wantKey) {
		t.Fatalf("url = %s", url)
	}
	if !bytes.HasPrefix(objs.objects["quotation-pdfs/"+wantKey], []byte("%PDF")) {
		t.Fatal("pdf not stored")
	}
	if objs.types["quotation-pdfs/"+wantKey] != "application/pdf" {
		t.Fatalf("content type = %s", objs.types["quotation-pdfs/"+wantKey])
	}
	if !strings.Contains(string(conv.html), "COT-3F2A9C1B-V2") {
		t.Fatal("reference missing from rendered document")
	}
}

func TestExportQuotationConversionFailure(t *testing.T) {
	objs := newMemoryObjects()
	e := New(&fakeConverter{err: errors.New("gotenberg down")}, objs, "b", "", logger.Discard())
	opp, q := sample(t)

	if _, _, err := e.ExportQuotation(context.Background(), opp, q); err == nil {
		t.Fatal("expected error")
	}
	if len(objs.objects) != 0 {
		t.Fatal("nothing may be stored when conversion fails")
	}
}
