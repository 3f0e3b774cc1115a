package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopward/backoffice/internal/platform/httpx"
	"github.com/shopward/backoffice/internal/services"
	"github.com/shopward/backoffice/internal/tracking"
)

// TrackingHandlers exposes carrier tracking sync and event endpoints.
type TrackingHandlers struct {
	tracking services.TrackingService
}

// NewTrackingHandlers constructs a new TrackingHandlers instance.
func NewTrackingHandlers(svc services.TrackingService) *TrackingHandlers {
	return &TrackingHandlers{tracking: svc}
}

// Routes registers the /tracking endpoints.
func (h *TrackingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/orders/{orderID}/sync", h.syncOrder)
	r.Get("/orders/{orderID}/events", h.listEvents)
}

func (h *TrackingHandlers) syncOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.tracking.Sync(ctx, services.TrackingSyncCommand{
		OrderID: chi.URLParam(r, "orderID"),
		ActorID: actorID(ctx),
	})
	if err != nil {
		writeTrackingError(w, r, err)
		return
	}

	payload := trackingSyncResponse{
		OrderID:  result.OrderID,
		Provider: result.Provider,
		Number:   result.Number,
		Events:   buildTrackingEvents(result.Events),
		SyncedAt: formatTime(result.SyncedAt),
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *TrackingHandlers) listEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := h.tracking.ListEvents(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeTrackingError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, trackingEventsResponse{Events: buildTrackingEvents(events)})
}

// writeTrackingError adds the provider failure taxonomy on top of the shared
// service error mapping: configuration problems are client-visible 400s,
// upstream carrier trouble is a 502.
func writeTrackingError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var providerErr *tracking.ProviderError
	if errors.As(err, &providerErr) {
		code := "tracking_" + string(providerErr.Kind)
		switch providerErr.Kind {
		case tracking.KindNotSupported, tracking.KindNotConfigured:
			httpx.WriteError(ctx, w, httpx.NewError(code, providerErr.Error(), http.StatusBadRequest))
		default:
			httpx.WriteError(ctx, w, httpx.NewError(code, providerErr.Error(), http.StatusBadGateway))
		}
		return
	}

	writeServiceError(ctx, w, err)
}

type trackingSyncResponse struct {
	OrderID  string                 `json:"order_id"`
	Provider string                 `json:"provider"`
	Number   string                 `json:"number"`
	Events   []trackingEventPayload `json:"events"`
	SyncedAt string                 `json:"synced_at"`
}

type trackingEventsResponse struct {
	Events []trackingEventPayload `json:"events"`
}

type trackingEventPayload struct {
	ID         string         `json:"id"`
	EventCode  string         `json:"event_code"`
	StatusText string         `json:"status_text"`
	Location   string         `json:"location,omitempty"`
	EventTime  string         `json:"event_time,omitempty"`
	Raw        map[string]any `json:"raw,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

func buildTrackingEvents(events []services.TrackingEvent) []trackingEventPayload {
	out := make([]trackingEventPayload, 0, len(events))
	for _, event := range events {
		out = append(out, trackingEventPayload{
			ID:         event.ID,
			EventCode:  event.EventCode,
			StatusText: event.StatusText,
			Location:   event.Location,
			EventTime:  formatTimePtr(event.EventTime),
			Raw:        event.Raw,
			CreatedAt:  formatTime(event.CreatedAt),
		})
	}
	return out
}
