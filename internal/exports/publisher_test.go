package exports

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"

	gcs "cloud.google.com/go/storage"

	"github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/platform/storage"
)

func newTestPublisher(t *testing.T) *Publisher {
	t.Helper()

	uploader, err := storage.NewUploader(&gcs.Client{})
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	raw, err := json.Marshal(map[string]string{
		"client_email": "exports@shopward-test.iam.gserviceaccount.com",
		"private_key":  string(pemBytes),
	})
	if err != nil {
		t.Fatalf("marshal service account json: %v", err)
	}
	signerKey, err := storage.NewServiceAccountSignerFromJSON(raw)
	if err != nil {
		t.Fatalf("NewServiceAccountSignerFromJSON: %v", err)
	}
	signer, err := storage.NewClient(signerKey)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	publisher, err := NewPublisher(PublisherDeps{
		Uploader: uploader,
		Signer:   signer,
		Bucket:   "shopward-exports",
		NewID:    func() string { return "exp_01" },
	})
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	return publisher
}

func TestNewPublisherRequiresDependencies(t *testing.T) {
	if _, err := NewPublisher(PublisherDeps{}); err == nil {
		t.Fatal("expected error for missing uploader")
	}
}

func TestPublishSkipsExportsWithoutCSV(t *testing.T) {
	publisher := newTestPublisher(t)

	if err := publisher.Publish(context.Background(), "products", nil); err != nil {
		t.Fatalf("Publish(nil): %v", err)
	}

	export := &domain.BulkExport{Columns: []string{"id"}, Rows: [][]string{{"prd_1"}}}
	if err := publisher.Publish(context.Background(), "products", export); err != nil {
		t.Fatalf("Publish(no csv): %v", err)
	}
	if export.DownloadURL != "" {
		t.Errorf("expected empty download url, got %q", export.DownloadURL)
	}
}

func TestPublishRejectsUnknownEntity(t *testing.T) {
	publisher := newTestPublisher(t)

	export := &domain.BulkExport{CSV: "id\nprd_1\n"}
	err := publisher.Publish(context.Background(), "carts", export)
	if err == nil {
		t.Fatal("expected error for unknown entity")
	}
	if !strings.Contains(err.Error(), "unknown entity") {
		t.Errorf("unexpected error: %v", err)
	}
}
