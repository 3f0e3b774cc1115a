package tracking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProvider(url string) *HTTPProvider {
	return NewHTTPProvider(HTTPConfig{
		Code:    "acme",
		BaseURL: url,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func TestHTTPProviderFetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/track/TRK-1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"events": [
				{"code": "PICKED_UP", "text": "Picked up", "location": "Osaka", "timestamp": "2026-03-13T08:00:00Z"},
				{"code": "IN_TRANSIT", "text": "In transit", "timestamp": "not-a-date"}
			]
		}`))
	}))
	defer srv.Close()

	events, err := newTestProvider(srv.URL).FetchEvents(context.Background(), "TRK-1", FetchOptions{})
	if err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventCode != "PICKED_UP" || events[0].Location != "Osaka" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].EventTime == nil {
		t.Fatalf("expected parsed event time")
	}
	if events[1].EventTime != nil {
		t.Fatalf("unparseable timestamp must yield nil event time")
	}
}

func TestHTTPProviderErrorTaxonomy(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		p := NewHTTPProvider(HTTPConfig{Code: "acme"})
		_, err := p.FetchEvents(context.Background(), "TRK-1", FetchOptions{})
		assertKind(t, err, KindNotConfigured)
	})

	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestProvider(srv.URL).FetchEvents(context.Background(), "TRK-1", FetchOptions{})
		assertKind(t, err, KindHTTPError)
		var perr *ProviderError
		if errors.As(err, &perr) && perr.Status != http.StatusBadGateway {
			t.Fatalf("status = %d", perr.Status)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>nope</html>"))
		}))
		defer srv.Close()

		_, err := newTestProvider(srv.URL).FetchEvents(context.Background(), "TRK-1", FetchOptions{})
		assertKind(t, err, KindParseError)
	})

	t.Run("application-level rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "error", "message": "unknown tracking number"}`))
		}))
		defer srv.Close()

		_, err := newTestProvider(srv.URL).FetchEvents(context.Background(), "TRK-1", FetchOptions{})
		assertKind(t, err, KindResponseError)
	})

	t.Run("unreachable host", func(t *testing.T) {
		p := NewHTTPProvider(HTTPConfig{
			Code:    "acme",
			BaseURL: "http://127.0.0.1:1",
			APIKey:  "k",
			Timeout: 500 * time.Millisecond,
		})
		_, err := p.FetchEvents(context.Background(), "TRK-1", FetchOptions{})
		assertKind(t, err, KindRequestFailed)
	})
}

func TestHTTPProviderTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ping" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if !newTestProvider(srv.URL).TestConnection(context.Background()) {
		t.Fatalf("expected reachable provider")
	}
	if NewHTTPProvider(HTTPConfig{Code: "acme"}).TestConnection(context.Background()) {
		t.Fatalf("unconfigured provider must fail the probe")
	}
}

func TestRegistryResolve(t *testing.T) {
	p := NewHTTPProvider(HTTPConfig{Code: "acme", BaseURL: "http://example.test", APIKey: "k"})
	registry := NewRegistry(p)

	got, err := registry.Resolve("acme")
	if err != nil || got.Code() != "acme" {
		t.Fatalf("Resolve(acme) = %v, %v", got, err)
	}

	_, err = registry.Resolve("ghost")
	assertKind(t, err, KindNotSupported)

	if codes := registry.Codes(); len(codes) != 1 || codes[0] != "acme" {
		t.Fatalf("Codes() = %v", codes)
	}
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ProviderError, got %v", err)
	}
	if perr.Kind != kind {
		t.Fatalf("kind = %s, want %s", perr.Kind, kind)
	}
}
