package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/services"
)

type stubAuditLogService struct {
	records []services.AuditLogRecord
	listFn  func(ctx context.Context, filter services.AuditLogFilter) (domain.CursorPage[services.AuditLogEntry], error)
}

func (s *stubAuditLogService) Record(_ context.Context, record services.AuditLogRecord) {
	s.records = append(s.records, record)
}

func (s *stubAuditLogService) List(ctx context.Context, filter services.AuditLogFilter) (domain.CursorPage[services.AuditLogEntry], error) {
	return s.listFn(ctx, filter)
}

func TestListAuditLogsAppliesFilters(t *testing.T) {
	created := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)
	var captured services.AuditLogFilter
	svc := &stubAuditLogService{
		listFn: func(_ context.Context, filter services.AuditLogFilter) (domain.CursorPage[services.AuditLogEntry], error) {
			captured = filter
			return domain.CursorPage[services.AuditLogEntry]{
				Items: []services.AuditLogEntry{{
					ID:         "log_1",
					Actor:      "staff_mei",
					Action:     "order.status.changed",
					TargetType: "order",
					TargetID:   "ord_1",
					CreatedAt:  created,
				}},
			}, nil
		},
	}
	router := NewRouter(WithAuditLogRoutes(NewAuditLogHandlers(svc).Routes))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs/?target_type=order&target_id=ord_1&actor=staff_mei&from=2026-08-01T00:00:00Z", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.TargetType != "order" || captured.TargetID != "ord_1" || captured.Actor != "staff_mei" {
		t.Fatalf("unexpected filter: %+v", captured)
	}
	if captured.DateRange.From == nil {
		t.Fatal("expected parsed from bound")
	}

	var resp auditLogListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Action != "order.status.changed" {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
}

func TestListAuditLogsRejectsBadTimestamp(t *testing.T) {
	svc := &stubAuditLogService{
		listFn: func(context.Context, services.AuditLogFilter) (domain.CursorPage[services.AuditLogEntry], error) {
			t.Fatal("service should not be invoked for malformed from bound")
			return domain.CursorPage[services.AuditLogEntry]{}, nil
		},
	}
	router := NewRouter(WithAuditLogRoutes(NewAuditLogHandlers(svc).Routes))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs/?from=lastweek", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	assertErrorCode(t, rr.Body.Bytes(), "invalid_request")
}
