package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusForCode(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{"", http.StatusInternalServerError},
		{"partial_bulk_failure", http.StatusBadRequest},
		{"order_not_found", http.StatusNotFound},
		{"settings_not_found", http.StatusNotFound},
		{"duplicate_sku_code", http.StatusConflict},
		{"invalid_tier_overlap", http.StatusBadRequest},
		{"invalid_bulk_payload", http.StatusBadRequest},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := StatusForCode(tc.code); got != tc.want {
			t.Errorf("StatusForCode(%q) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	err := NewError("invalid_order_status", "cannot move completed to pending", http.StatusBadRequest).
		WithRequestID("req-123").
		WithDetails(map[string]any{"target": "pending"})

	WriteError(context.Background(), rr, err)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %s", ct)
	}

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload["error"] != "invalid_order_status" || payload["request_id"] != "req-123" || payload["target"] != "pending" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestNewErrorSanitizesInput(t *testing.T) {
	err := NewError("bad\ncode", "line\r\nbroken message", 0)
	if err.Status != http.StatusInternalServerError {
		t.Fatalf("expected default 500, got %d", err.Status)
	}
	if err.Code != "bad code" {
		t.Fatalf("expected newline collapsed, got %q", err.Code)
	}
}
