package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"climas_backend/platform/apperr"

	"github.com/google/uuid"
)

// AllowedContentTypes lists the document types accepted on an opportunity:
// plans, photos of the site and office documents.
var AllowedContentTypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/png":          true,
	"image/webp":         true,
	"image/vnd.dwg":      true,
	"image/vnd.dxf":      true,
	"application/acad":   true,
	"application/dxf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
	"text/csv":   true,
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ValidateUpload checks the declared content type and size of an upload.
func ValidateUpload(contentType string, sizeBytes, maxSize int64) error {
	fields := apperr.FieldErrors{}
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if !AllowedContentTypes[normalized] {
		fields.Add("contentType", fmt.Sprintf("%q is not allowed", contentType))
	}
	switch {
	case sizeBytes <= 0:
		fields.Add("sizeBytes", "must be greater than 0")
	case maxSize > 0 && sizeBytes > maxSize:
		fields.Add("sizeBytes", fmt.Sprintf("must not exceed %d bytes", maxSize))
	}
	return fields.Err("invalid upload")
}

// DocumentKey returns a unique object key for a document of an opportunity.
func DocumentKey(opportunityID uuid.UUID, fileName string) string {
	ext := path.Ext(fileName)
	base := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSuffix(path.Base(fileName), ext), "-"), "-")
	if base == "" {
		base = "document"
	}
	ext = unsafeName.ReplaceAllString(strings.ToLower(ext), "")
	return fmt.Sprintf("opportunities/%s/documents/%s_%s%s", opportunityID, base, uuid.New().String()[:8], ext)
}

// QuotationPDFKey returns the object key of an exported quotation version.
// Versions are immutable once superseded, so the key is deterministic.
func QuotationPDFKey(opportunityID uuid.UUID, version int) string {
	return fmt.Sprintf("opportunities/%s/quotations/v%d.pdf", opportunityID, version)
}
