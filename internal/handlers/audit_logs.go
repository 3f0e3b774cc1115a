package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/platform/httpx"
	"github.com/shopward/backoffice/internal/platform/pagination"
	"github.com/shopward/backoffice/internal/services"
)

// AuditLogHandlers exposes the audit trail query endpoint.
type AuditLogHandlers struct {
	audit services.AuditLogService
}

// NewAuditLogHandlers constructs a new AuditLogHandlers instance.
func NewAuditLogHandlers(audit services.AuditLogService) *AuditLogHandlers {
	return &AuditLogHandlers{audit: audit}
}

// Routes registers the /audit-logs endpoints.
func (h *AuditLogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listEntries)
}

func (h *AuditLogHandlers) listEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := pagination.FromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page token is malformed", http.StatusBadRequest))
		return
	}

	query := r.URL.Query()
	filter := services.AuditLogFilter{
		TargetType: strings.TrimSpace(query.Get("target_type")),
		TargetID:   strings.TrimSpace(query.Get("target_id")),
		Actor:      strings.TrimSpace(query.Get("actor")),
		Action:     strings.TrimSpace(query.Get("action")),
		Pagination: pager,
	}
	from, err := parseTimePtr(query.Get("from"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "from must be RFC3339", http.StatusBadRequest))
		return
	}
	to, err := parseTimePtr(query.Get("to"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "to must be RFC3339", http.StatusBadRequest))
		return
	}
	filter.DateRange = domain.RangeQuery[time.Time]{From: from, To: to}

	page, err := h.audit.List(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := auditLogListResponse{
		Entries:       make([]auditLogPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, entry := range page.Items {
		payload.Entries = append(payload.Entries, buildAuditLogPayload(entry))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

type auditLogListResponse struct {
	Entries       []auditLogPayload `json:"entries"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

type auditLogPayload struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	ActorType  string         `json:"actor_type,omitempty"`
	Action     string         `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	Severity   string         `json:"severity,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

func buildAuditLogPayload(entry services.AuditLogEntry) auditLogPayload {
	return auditLogPayload{
		ID:         entry.ID,
		Actor:      entry.Actor,
		ActorType:  entry.ActorType,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Severity:   entry.Severity,
		RequestID:  entry.RequestID,
		Metadata:   entry.Metadata,
		CreatedAt:  formatTime(entry.CreatedAt),
	}
}
