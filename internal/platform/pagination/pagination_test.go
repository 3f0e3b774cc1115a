package pagination

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	token := EncodeToken(Cursor{StartAfter: []any{"2026-03-14T12:00:00Z", "ord_123"}})
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	cursor, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken() error = %v", err)
	}
	if len(cursor.StartAfter) != 2 || cursor.StartAfter[1] != "ord_123" {
		t.Fatalf("cursor = %+v", cursor)
	}
}

func TestEmptyCursorEncodesEmpty(t *testing.T) {
	if token := EncodeToken(Cursor{}); token != "" {
		t.Fatalf("empty cursor must encode to empty token, got %q", token)
	}
	cursor, err := DecodeToken("")
	if err != nil || len(cursor.StartAfter) != 0 {
		t.Fatalf("empty token must decode to empty cursor: %+v, %v", cursor, err)
	}
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{"%%%", "bm90LWpzb24"} {
		if _, err := DecodeToken(token); !errors.Is(err, ErrInvalidPageToken) {
			t.Errorf("DecodeToken(%q) = %v, want ErrInvalidPageToken", token, err)
		}
	}
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?page_size=25", nil)
	pager, err := FromRequest(r)
	if err != nil {
		t.Fatalf("FromRequest() error = %v", err)
	}
	if pager.PageSize != 25 {
		t.Fatalf("page size = %d", pager.PageSize)
	}

	r = httptest.NewRequest("GET", "/orders?page_size=9999", nil)
	pager, err = FromRequest(r)
	if err != nil {
		t.Fatalf("FromRequest() error = %v", err)
	}
	if pager.PageSize != MaxPageSize {
		t.Fatalf("expected clamp to %d, got %d", MaxPageSize, pager.PageSize)
	}

	r = httptest.NewRequest("GET", "/orders?page_size=abc", nil)
	if _, err := FromRequest(r); err == nil {
		t.Fatalf("expected error for non-numeric page size")
	}

	r = httptest.NewRequest("GET", "/orders?page_token=!!!", nil)
	if _, err := FromRequest(r); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}
