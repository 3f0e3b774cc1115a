package tracking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Event is a provider-neutral carrier event. Providers normalize their wire
// payloads into this shape before handing them back to callers.
type Event struct {
	EventCode  string
	StatusText string
	Location   string
	EventTime  *time.Time
	Raw        map[string]any
}

// FetchOptions tunes a single fetch. Zero values mean provider defaults.
type FetchOptions struct {
	Language string
	Limit    int
}

// Provider is the capability a carrier integration must implement.
type Provider interface {
	Code() string
	FetchEvents(ctx context.Context, trackingNumber string, opts FetchOptions) ([]Event, error)
	TestConnection(ctx context.Context) bool
}

// ErrorKind classifies provider failures so callers can distinguish
// configuration problems from transient network trouble.
type ErrorKind string

const (
	KindNotSupported  ErrorKind = "not_supported"
	KindNotConfigured ErrorKind = "not_configured"
	KindRequestFailed ErrorKind = "request_failed"
	KindHTTPError     ErrorKind = "http_error"
	KindParseError    ErrorKind = "parse_error"
	KindResponseError ErrorKind = "response_error"
)

// ProviderError reports a failed provider interaction.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Message  string
	cause    error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("tracking provider %s: %s", e.Provider, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func newProviderError(provider string, kind ErrorKind, status int, message string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Status: status, Message: message, cause: cause}
}

// Registry holds the configured providers keyed by their codes.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Code()] = p
	}
	return r
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Code()] = p
}

// Resolve returns the provider for the code, or a not_supported error.
func (r *Registry) Resolve(code string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[code]
	if !ok {
		return nil, newProviderError(code, KindNotSupported, 0, "no provider registered", nil)
	}
	return p, nil
}

// Codes lists the registered provider codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.providers))
	for code := range r.providers {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
