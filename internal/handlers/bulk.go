package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopward/backoffice/internal/platform/httpx"
	"github.com/shopward/backoffice/internal/services"
)

const maxBulkBodySize = 512 * 1024

type bulkExecutor func(ctx context.Context, cmd services.BulkCommand) (services.BulkOperationSummary, error)

// BulkHandlers exposes the batch mutation endpoints.
type BulkHandlers struct {
	bulk services.BulkService
}

// NewBulkHandlers constructs a new BulkHandlers instance.
func NewBulkHandlers(bulk services.BulkService) *BulkHandlers {
	return &BulkHandlers{bulk: bulk}
}

// Routes registers the /bulk endpoints.
func (h *BulkHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/products", h.executeProducts)
	r.Post("/orders", h.executeOrders)
}

func (h *BulkHandlers) executeProducts(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, h.bulk.ExecuteProducts)
}

func (h *BulkHandlers) executeOrders(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, h.bulk.ExecuteOrders)
}

// execute runs one batch and picks the response status from the outcome: 200
// when every item succeeded, 207 when outcomes are mixed, and the error
// envelope (400 partial_bulk_failure) when nothing succeeded.
func (h *BulkHandlers) execute(w http.ResponseWriter, r *http.Request, run bulkExecutor) {
	ctx := r.Context()

	var req bulkRequest
	if err := decodeJSONBody(r, maxBulkBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if len(req.IDs) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError(services.CodeInvalidBulkPayload, "ids must not be empty", http.StatusBadRequest))
		return
	}

	summary, err := run(ctx, services.BulkCommand{
		IDs:     trimIDs(req.IDs),
		Action:  strings.TrimSpace(req.Action),
		Payload: buildBulkPayload(req.Payload),
		ActorID: actorID(ctx),
	})
	if err != nil {
		var domainErr services.DomainError
		if errors.As(err, &domainErr) && domainErr.Code() == services.CodePartialBulkFailure {
			httpx.WriteError(ctx, w, httpx.
				NewError(domainErr.Code(), domainErr.SafeMessage(), httpx.StatusForCode(domainErr.Code())).
				WithDetails(map[string]any{"failures": buildBulkFailures(summary.Failures)}))
			return
		}
		writeServiceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if len(summary.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSONResponse(w, status, buildBulkSummary(summary))
}

type bulkRequest struct {
	IDs     []string           `json:"ids"`
	Action  string             `json:"action"`
	Payload bulkPayloadRequest `json:"payload"`
}

type bulkPayloadRequest struct {
	Status      string         `json:"status"`
	StockDelta  int            `json:"stock_delta"`
	Meta        map[string]any `json:"meta"`
	PriceMode   string         `json:"price_mode"`
	PriceValue  float64        `json:"price_value"`
	PriceFields []string       `json:"price_fields"`
	Precision   int            `json:"precision"`
	Featured    *bool          `json:"featured"`
	Hard        bool           `json:"hard"`
	WithCSV     bool           `json:"with_csv"`
}

type bulkSummaryResponse struct {
	Action      string               `json:"action"`
	Total       int                  `json:"total"`
	Updated     int                  `json:"updated"`
	Details     []bulkDetailPayload  `json:"details"`
	Failures    []bulkFailurePayload `json:"failures,omitempty"`
	Export      *bulkExportPayload   `json:"export,omitempty"`
	CompletedAt string               `json:"completed_at"`
}

type bulkDetailPayload struct {
	ID      string         `json:"id"`
	Changed bool           `json:"changed"`
	Fields  map[string]any `json:"fields,omitempty"`
}

type bulkFailurePayload struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type bulkExportPayload struct {
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	CSV         string     `json:"csv,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
}

func trimIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func buildBulkPayload(req bulkPayloadRequest) services.BulkPayload {
	return services.BulkPayload{
		Status:      strings.TrimSpace(req.Status),
		StockDelta:  req.StockDelta,
		Meta:        req.Meta,
		PriceMode:   strings.TrimSpace(req.PriceMode),
		PriceValue:  req.PriceValue,
		PriceFields: req.PriceFields,
		Precision:   req.Precision,
		Featured:    req.Featured,
		Hard:        req.Hard,
		WithCSV:     req.WithCSV,
	}
}

func buildBulkSummary(summary services.BulkOperationSummary) bulkSummaryResponse {
	resp := bulkSummaryResponse{
		Action:      summary.Action,
		Total:       summary.Total,
		Updated:     summary.Updated,
		Details:     make([]bulkDetailPayload, 0, len(summary.Details)),
		Failures:    buildBulkFailures(summary.Failures),
		CompletedAt: formatTime(summary.CompletedAt),
	}
	for _, detail := range summary.Details {
		resp.Details = append(resp.Details, bulkDetailPayload{
			ID:      detail.ID,
			Changed: detail.Changed,
			Fields:  detail.Fields,
		})
	}
	if summary.Export != nil {
		resp.Export = &bulkExportPayload{
			Columns:     summary.Export.Columns,
			Rows:        summary.Export.Rows,
			CSV:         summary.Export.CSV,
			DownloadURL: summary.Export.DownloadURL,
		}
	}
	return resp
}

func buildBulkFailures(failures []services.BulkItemFailure) []bulkFailurePayload {
	if len(failures) == 0 {
		return nil
	}
	out := make([]bulkFailurePayload, 0, len(failures))
	for _, failure := range failures {
		out = append(out, bulkFailurePayload{ID: failure.ID, Code: failure.Code, Reason: failure.Reason})
	}
	return out
}
