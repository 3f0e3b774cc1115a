package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopward/backoffice/internal/services"
	"github.com/shopward/backoffice/internal/tracking"
)

type stubTrackingService struct {
	syncFn func(ctx context.Context, cmd services.TrackingSyncCommand) (services.TrackingSyncResult, error)
	listFn func(ctx context.Context, orderID string) ([]services.TrackingEvent, error)
}

func (s *stubTrackingService) Sync(ctx context.Context, cmd services.TrackingSyncCommand) (services.TrackingSyncResult, error) {
	return s.syncFn(ctx, cmd)
}

func (s *stubTrackingService) ListEvents(ctx context.Context, orderID string) ([]services.TrackingEvent, error) {
	return s.listFn(ctx, orderID)
}

func newTrackingRouter(svc services.TrackingService) http.Handler {
	return NewRouter(
		WithMiddlewares(ActorMiddleware()),
		WithTrackingRoutes(NewTrackingHandlers(svc).Routes),
	)
}

func TestTrackingSyncReturnsEvents(t *testing.T) {
	synced := time.Date(2026, time.May, 5, 10, 0, 0, 0, time.UTC)
	eventTime := synced.Add(-2 * time.Hour)
	svc := &stubTrackingService{
		syncFn: func(_ context.Context, cmd services.TrackingSyncCommand) (services.TrackingSyncResult, error) {
			if cmd.OrderID != "ord_1" {
				t.Fatalf("unexpected order id %s", cmd.OrderID)
			}
			return services.TrackingSyncResult{
				OrderID:  "ord_1",
				Provider: "yamato",
				Number:   "4400-1122-3344",
				Events: []services.TrackingEvent{{
					ID:         "trk_1",
					OrderID:    "ord_1",
					EventCode:  "DEPARTED",
					StatusText: "Departed sorting facility",
					Location:   "Kawasaki",
					EventTime:  &eventTime,
					CreatedAt:  synced,
				}},
				SyncedAt: synced,
			}, nil
		},
	}
	router := newTrackingRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tracking/orders/ord_1/sync", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp trackingSyncResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Provider != "yamato" || len(resp.Events) != 1 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.Events[0].EventCode != "DEPARTED" || resp.Events[0].EventTime == "" {
		t.Fatalf("unexpected event payload: %+v", resp.Events[0])
	}
}

func TestTrackingSyncMissingRefs(t *testing.T) {
	svc := &stubTrackingService{
		syncFn: func(context.Context, services.TrackingSyncCommand) (services.TrackingSyncResult, error) {
			return services.TrackingSyncResult{}, services.NewValidationError(services.CodeInvalidTrackingPayload, "order ord_1 has no tracking provider or number")
		},
	}
	router := newTrackingRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tracking/orders/ord_1/sync", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	assertErrorCode(t, rr.Body.Bytes(), services.CodeInvalidTrackingPayload)
}

func TestTrackingSyncProviderFailureTaxonomy(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unsupported carrier",
			err:        &tracking.ProviderError{Provider: "sagawa", Kind: tracking.KindNotSupported, Message: "no provider registered"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "tracking_not_supported",
		},
		{
			name:       "carrier http failure",
			err:        &tracking.ProviderError{Provider: "yamato", Kind: tracking.KindHTTPError, Status: 502, Message: "bad gateway"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "tracking_http_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubTrackingService{
				syncFn: func(context.Context, services.TrackingSyncCommand) (services.TrackingSyncResult, error) {
					return services.TrackingSyncResult{}, tc.err
				},
			}
			router := newTrackingRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/tracking/orders/ord_1/sync", nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			assertErrorCode(t, rr.Body.Bytes(), tc.wantCode)
		})
	}
}

func TestTrackingListEvents(t *testing.T) {
	svc := &stubTrackingService{
		listFn: func(_ context.Context, orderID string) ([]services.TrackingEvent, error) {
			if orderID != "ord_1" {
				t.Fatalf("unexpected order id %s", orderID)
			}
			return []services.TrackingEvent{{ID: "trk_1", EventCode: "DELIVERED"}}, nil
		},
	}
	router := newTrackingRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tracking/orders/ord_1/events", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp trackingEventsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].EventCode != "DELIVERED" {
		t.Fatalf("unexpected events: %+v", resp.Events)
	}
}
