// Package storage provides S3-compatible object storage for opportunity
// documents and exported quotations.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL contains the URL and metadata for a presigned upload/download operation.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ObjectStore defines the object storage operations used by the pipeline.
type ObjectStore interface {
	// PresignUpload creates a presigned PUT URL for the given key.
	PresignUpload(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)

	// PresignDownload creates a presigned GET URL for the given key.
	PresignDownload(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)

	// Put stores the object under the exact key, replacing any previous object.
	Put(ctx context.Context, bucket, fileKey, contentType string, reader io.Reader, size int64) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}
