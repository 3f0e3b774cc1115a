package storage

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestSigner(t *testing.T) *ServiceAccountSigner {
	t.Helper()

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
	signer, err := NewServiceAccountSignerFromJSON(raw)
	if err != nil {
		t.Fatalf("NewServiceAccountSignerFromJSON: %v", err)
	}
	return signer
}

func TestDownloadURLSignsGetRequest(t *testing.T) {
	signer := newTestSigner(t)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	client, err := NewClient(signer, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	result, err := client.DownloadURL(context.Background(), "shopward-exports", "exports/orders/exp_01/orders.csv", DownloadOptions{
		ExpiresIn:    10 * time.Minute,
		Disposition:  `attachment; filename="orders.csv"`,
		ResponseType: "text/csv",
	})
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}

	if result.Method != "GET" {
		t.Errorf("expected GET, got %s", result.Method)
	}
	if want := now.Add(10 * time.Minute); !result.ExpiresAt.Equal(want) {
		t.Errorf("expected expiry %s, got %s", want, result.ExpiresAt)
	}

	parsed, err := url.Parse(result.URL)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if !strings.Contains(parsed.Path, "exports/orders/exp_01/orders.csv") {
		t.Errorf("object path missing from url: %s", parsed.Path)
	}
	query := parsed.Query()
	if got := query.Get("response-content-type"); got != "text/csv" {
		t.Errorf("expected response-content-type query, got %q", got)
	}
	if query.Get("X-Goog-Signature") == "" {
		t.Error("expected V4 signature query parameter")
	}
}

func TestDownloadURLValidation(t *testing.T) {
	signer := newTestSigner(t)
	client, err := NewClient(signer)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	if _, err := client.DownloadURL(ctx, "", "object", DownloadOptions{}); err != errInvalidBucket {
		t.Errorf("expected bucket error, got %v", err)
	}
	if _, err := client.DownloadURL(ctx, "bucket", " ", DownloadOptions{}); err != errInvalidObject {
		t.Errorf("expected object error, got %v", err)
	}
	if _, err := client.DownloadURL(ctx, "bucket", "object", DownloadOptions{Method: "DELETE"}); err != errMethodNotAllowed {
		t.Errorf("expected method error, got %v", err)
	}
	if _, err := client.DownloadURL(ctx, "bucket", "object", DownloadOptions{ExpiresIn: time.Hour}); err != errExpiryTooLong {
		t.Errorf("expected expiry error, got %v", err)
	}
}

func TestNewClientRequiresSigner(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Fatal("expected error for nil signer")
	}
}
