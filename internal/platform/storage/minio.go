// Package storage provides the object-storage collaborator used for document
// attachments.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage uploads a file and returns its public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, reader io.Reader, filename, contentType string, size int64) (string, error)
}

// MinioStorage implements ObjectStorage backed by a MinIO/S3 bucket.
type MinioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// Config holds connection settings for the storage backend.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// NewMinio constructs a MinIO-backed storage client and ensures the bucket exists.
func NewMinio(ctx context.Context, cfg Config) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("platform/storage: new client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("platform/storage: bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("platform/storage: make bucket: %w", err)
		}
	}

	return &MinioStorage{client: client, bucket: cfg.Bucket, publicURL: cfg.PublicURL}, nil
}

// Upload stores the object under a date-partitioned key and returns its URL.
func (s *MinioStorage) Upload(ctx context.Context, reader io.Reader, filename, contentType string, size int64) (string, error) {
	objectName := fmt.Sprintf("documents/%s/%s%s",
		time.Now().UTC().Format("2006/01/02"),
		uuid.New().String()[:8],
		filepath.Ext(filename),
	)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("platform/storage: put object: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName), nil
}
