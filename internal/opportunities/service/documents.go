package service

import (
	"context"
	"strings"

	"climas_backend/internal/adapters/storage"
	"climas_backend/internal/opportunities/transport"
	"climas_backend/platform/apperr"

	"github.com/google/uuid"
)

// DocumentStorage issues presigned URLs for opportunity documents.
type DocumentStorage interface {
	PresignUpload(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error)
	PresignDownload(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error)
}

type documentStore struct {
	store   DocumentStorage
	bucket  string
	maxSize int64
}

// SetDocumentStorage injects the object store used for document uploads.
func (s *Service) SetDocumentStorage(store DocumentStorage, bucket string, maxSize int64) {
	s.documents = &documentStore{store: store, bucket: bucket, maxSize: maxSize}
}

// PresignDocumentUpload returns an upload URL and the key to attach once the
// upload completes. The opportunity itself is not modified.
func (s *Service) PresignDocumentUpload(ctx context.Context, id uuid.UUID, req transport.PresignDocumentRequest) (*transport.PresignedURLResponse, error) {
	if s.documents == nil {
		return nil, apperr.Internal("document storage is not configured")
	}
	if err := storage.ValidateUpload(req.ContentType, req.SizeBytes, s.documents.maxSize); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	u, err := s.documents.store.PresignUpload(ctx, s.documents.bucket, storage.DocumentKey(id, strings.TrimSpace(req.FileName)))
	if err != nil {
		return nil, err
	}
	return &transport.PresignedURLResponse{URL: u.URL, FileKey: u.FileKey, ExpiresAt: u.ExpiresAt}, nil
}

// DocumentDownloadURL returns a download URL for an attached document.
func (s *Service) DocumentDownloadURL(ctx context.Context, id, documentID uuid.UUID) (*transport.PresignedURLResponse, error) {
	if s.documents == nil {
		return nil, apperr.Internal("document storage is not configured")
	}
	opp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, d := range opp.Documents {
		if d.ID != documentID {
			continue
		}
		u, err := s.documents.store.PresignDownload(ctx, s.documents.bucket, d.FileKey)
		if err != nil {
			return nil, err
		}
		return &transport.PresignedURLResponse{URL: u.URL, FileKey: u.FileKey, ExpiresAt: u.ExpiresAt}, nil
	}
	return nil, apperr.NotFound("document not found").WithField("documentId", documentID.String())
}
