package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	goption "google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCSStore writes objects into a Google Cloud Storage bucket.
type GCSStore struct {
	svc    *gstorage.Service
	bucket string
}

// NewGCSStore authenticates with service account JSON.
func NewGCSStore(ctx context.Context, bucket string, credentialsJSON []byte) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("missing GCS bucket")
	}
	svc, err := gstorage.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gstorage.DevstorageReadWriteScope))
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return &GCSStore{svc: svc, bucket: bucket}, nil
}

func (s *GCSStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if s.svc == nil {
		return errors.New("storage service not initialized")
	}
	obj := &gstorage.Object{Name: key, ContentType: contentType}
	_, err := s.svc.Objects.Insert(s.bucket, obj).Media(r).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("upload %s to %s: %w", key, s.bucket, err)
	}
	return nil
}

func (s *GCSStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", gcsPublicHost, s.bucket, key)
}
