package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// Uploader writes generated export files to Cloud Storage.
type Uploader struct {
	client *gcs.Client
}

// NewUploader constructs an Uploader backed by the provided Cloud Storage client.
func NewUploader(client *gcs.Client) (*Uploader, error) {
	if client == nil {
		return nil, errors.New("storage uploader: client is required")
	}
	return &Uploader{client: client}, nil
}

// Upload writes data to bucket/object with the given content type, replacing
// any existing object.
func (u *Uploader) Upload(ctx context.Context, bucket, object, contentType string, data []byte) error {
	if u == nil || u.client == nil {
		return errors.New("storage uploader: client is not initialised")
	}
	bucket = strings.TrimSpace(bucket)
	object = strings.TrimSpace(object)
	if bucket == "" || object == "" {
		return errors.New("storage uploader: bucket and object must be provided")
	}

	w := u.client.Bucket(bucket).Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("storage uploader: write %s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage uploader: finalize %s/%s: %w", bucket, object, err)
	}
	return nil
}
