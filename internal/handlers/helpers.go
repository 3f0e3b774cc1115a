package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopward/backoffice/internal/platform/httpx"
	"github.com/shopward/backoffice/internal/platform/requestctx"
	"github.com/shopward/backoffice/internal/repositories"
	"github.com/shopward/backoffice/internal/services"
)

const defaultMaxBodySize = 256 * 1024

var (
	errEmptyBody    = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body too large")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = defaultMaxBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func decodeJSONBody(r *http.Request, limit int64, dst any) error {
	body, err := readLimitedBody(r, limit)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("invalid JSON payload")
	}
	return nil
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

// writeServiceError maps service-layer failures onto the stable error
// envelope. Domain errors carry their own codes; repository outages become
// 503; anything else is reported as an opaque server fault.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var domainErr services.DomainError
	if errors.As(err, &domainErr) {
		code := domainErr.Code()
		httpx.WriteError(ctx, w, httpx.NewError(code, domainErr.SafeMessage(), httpx.StatusForCode(code)))
		return
	}

	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError(services.CodeOrderNotFound, "order not found", http.StatusNotFound))
		return
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError(services.CodeProductNotFound, "product not found", http.StatusNotFound))
		return
	case errors.Is(err, services.ErrOrderInvalidInput), errors.Is(err, services.ErrProductInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	case errors.Is(err, services.ErrOrderConflict), errors.Is(err, services.ErrProductConflict):
		httpx.WriteError(ctx, w, httpx.NewError("resource_conflict", "resource version conflict", http.StatusConflict))
		return
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			httpx.WriteError(ctx, w, httpx.NewError("resource_not_found", "resource not found", http.StatusNotFound))
		case repoErr.IsConflict():
			httpx.WriteError(ctx, w, httpx.NewError("resource_conflict", "resource version conflict", http.StatusConflict))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("storage_unavailable", "storage temporarily unavailable", http.StatusServiceUnavailable))
		}
		return
	}

	httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to process request", http.StatusInternalServerError))
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func cloneStringPointer(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func parseTimePtr(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	utc := t.UTC()
	return &utc, nil
}

// actorID returns the acting staff identifier for audit attribution. Requests
// without an actor fall back to "system" so audit rows never carry an empty
// actor.
func actorID(ctx context.Context) string {
	if actor, ok := requestctx.ActorFrom(ctx); ok && actor.ID != "" {
		return actor.ID
	}
	return "system"
}
