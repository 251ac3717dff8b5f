// Package storage uploads files to an S3 compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/spec-kit/frontdesk/internal/config"
)

// ErrNotConfigured is returned when no storage endpoint is set.
var ErrNotConfigured = errors.New("storage not configured")

// ObjectStore stores objects and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type minioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewObjectStore connects to the configured bucket.
func NewObjectStore(cfg config.StorageConfig) (ObjectStore, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNotConfigured
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &minioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: PublicBaseURL(cfg),
	}, nil
}

// PublicBaseURL is where objects of the bucket are served from.
func PublicBaseURL(cfg config.StorageConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}

func (s *minioStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}
