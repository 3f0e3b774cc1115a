package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// defaultFetchTimeout bounds a single provider call when no explicit timeout
// is configured.
const defaultFetchTimeout = 20 * time.Second

// HTTPConfig configures an HTTPProvider against a carrier's REST tracking API.
type HTTPConfig struct {
	Code    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Client  *http.Client
}

// HTTPProvider fetches tracking events from a JSON-over-HTTP carrier API of the
// shape GET {base}/v1/track/{number}. It is the default provider
// implementation; carriers with bespoke protocols wrap their own Provider.
type HTTPProvider struct {
	code    string
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPProvider{
		code:    cfg.Code,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: timeout,
		client:  client,
	}
}

func (p *HTTPProvider) Code() string {
	return p.code
}

type trackResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Events  []trackEvent `json:"events"`
}

type trackEvent struct {
	Code      string         `json:"code"`
	Text      string         `json:"text"`
	Location  string         `json:"location"`
	Timestamp string         `json:"timestamp"`
	Raw       map[string]any `json:"raw"`
}

func (p *HTTPProvider) FetchEvents(ctx context.Context, trackingNumber string, opts FetchOptions) ([]Event, error) {
	if p.baseURL == "" || p.apiKey == "" {
		return nil, newProviderError(p.code, KindNotConfigured, 0, "base url and api key are required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1/track/%s", p.baseURL, url.PathEscape(trackingNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newProviderError(p.code, KindRequestFailed, 0, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	q := req.URL.Query()
	if opts.Language != "" {
		q.Set("lang", opts.Language)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	req.URL.RawQuery = q.Encode()

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, newProviderError(p.code, KindRequestFailed, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newProviderError(p.code, KindHTTPError, resp.StatusCode, "unexpected status", nil)
	}

	var payload trackResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, newProviderError(p.code, KindParseError, 0, "decode response", err)
	}
	if payload.Status != "" && payload.Status != "ok" {
		return nil, newProviderError(p.code, KindResponseError, 0, payload.Message, nil)
	}

	events := make([]Event, 0, len(payload.Events))
	for _, te := range payload.Events {
		events = append(events, Event{
			EventCode:  te.Code,
			StatusText: te.Text,
			Location:   te.Location,
			EventTime:  parseEventTime(te.Timestamp),
			Raw:        te.Raw,
		})
	}
	return events, nil
}

// TestConnection probes the provider with an empty tracking number fetch and
// reports whether the API answered at all. Configuration errors count as
// failures, HTTP-level rejections of the probe number do not.
func (p *HTTPProvider) TestConnection(ctx context.Context) bool {
	if p.baseURL == "" || p.apiKey == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/ping", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func parseEventTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}
