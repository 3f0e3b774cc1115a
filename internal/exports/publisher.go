// Package exports uploads rendered bulk export artifacts to Cloud Storage and
// produces short-lived signed download links for back-office staff.
package exports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/platform/storage"
)

const (
	csvContentType = "text/csv; charset=utf-8"
	csvFileName    = "export.csv"
)

var purposes = map[string]storage.ExportPurpose{
	"products": storage.PurposeProductExport,
	"orders":   storage.PurposeOrderExport,
}

// Publisher writes export CSVs to the exports bucket and stamps a signed GET
// URL onto the export so callers can download without bucket credentials.
type Publisher struct {
	uploader *storage.Uploader
	signer   *storage.Client
	bucket   string
	expiry   time.Duration
	newID    func() string
}

// PublisherDeps bundles collaborators required to construct a Publisher.
type PublisherDeps struct {
	Uploader *storage.Uploader
	Signer   *storage.Client
	Bucket   string
	// Expiry bounds the signed URL lifetime; zero selects the signer default.
	Expiry time.Duration
	NewID  func() string
}

// NewPublisher validates dependencies and constructs a Publisher.
func NewPublisher(deps PublisherDeps) (*Publisher, error) {
	if deps.Uploader == nil {
		return nil, errors.New("exports: uploader is required")
	}
	if deps.Signer == nil {
		return nil, errors.New("exports: signer is required")
	}
	bucket := strings.TrimSpace(deps.Bucket)
	if bucket == "" {
		return nil, errors.New("exports: bucket is required")
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string {
			return ulid.Make().String()
		}
	}
	return &Publisher{
		uploader: deps.Uploader,
		signer:   deps.Signer,
		bucket:   bucket,
		expiry:   deps.Expiry,
		newID:    newID,
	}, nil
}

// Publish uploads the rendered CSV for the given entity kind ("products" or
// "orders") and sets export.DownloadURL to a signed link. The export is left
// untouched when it carries no rendered CSV.
func (p *Publisher) Publish(ctx context.Context, entity string, export *domain.BulkExport) error {
	if export == nil || export.CSV == "" {
		return nil
	}
	purpose, ok := purposes[entity]
	if !ok {
		return fmt.Errorf("exports: unknown entity %q", entity)
	}

	object, err := storage.BuildObjectPath(purpose, storage.PathParams{
		ExportID: p.newID(),
		FileName: csvFileName,
	})
	if err != nil {
		return fmt.Errorf("exports: build object path: %w", err)
	}

	if err := p.uploader.Upload(ctx, p.bucket, object, csvContentType, []byte(export.CSV)); err != nil {
		return fmt.Errorf("exports: upload %s: %w", object, err)
	}

	signed, err := p.signer.DownloadURL(ctx, p.bucket, object, storage.DownloadOptions{
		ExpiresIn:   p.expiry,
		Disposition: fmt.Sprintf("attachment; filename=%q", csvFileName),
	})
	if err != nil {
		return fmt.Errorf("exports: sign download url: %w", err)
	}

	export.DownloadURL = signed.URL
	return nil
}
