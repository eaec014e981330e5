package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/minrafi/invoicer/internal/config"
	"go.uber.org/zap"
)

const objectPrefix = "invoices/"

// GCSStore stores invoice artifacts in a Google Cloud Storage bucket.
// The bucket is expected to be publicly readable (uniform access via IAM),
// so URLFor can build stable unauthenticated URLs.
type GCSStore struct {
	client *gcs.Client
	scheme URLScheme
	log    *zap.Logger
}

func NewGCSStore(client *gcs.Client, cfg config.Config, log *zap.Logger) *GCSStore {
	return &GCSStore{
		client: client,
		scheme: URLScheme{
			BaseURL: cfg.StorageBaseURL,
			Bucket:  cfg.StorageBucket,
		},
		log: log.Named("storage.gcs"),
	}
}

func (s *GCSStore) Upload(ctx context.Context, data []byte, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty artifact name", ErrUploadFailed)
	}

	artifactID := objectPrefix + name
	w := s.client.Bucket(s.scheme.Bucket).Object(artifactID + artifactExtension).NewWriter(ctx)
	w.ContentType = "application/pdf"
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	s.log.Debug("artifact uploaded",
		zap.String("artifact_id", artifactID),
		zap.Int("size_bytes", len(data)),
	)
	return artifactID, nil
}

func (s *GCSStore) Delete(ctx context.Context, artifactID string) error {
	obj := s.client.Bucket(s.scheme.Bucket).Object(artifactID + artifactExtension)
	if err := obj.Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *GCSStore) URLFor(artifactID string, variant Variant) string {
	return s.scheme.URLFor(artifactID, variant)
}

func (s *GCSStore) ExtractID(rawURL string) string {
	return s.scheme.ExtractID(rawURL)
}
