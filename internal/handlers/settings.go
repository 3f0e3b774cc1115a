package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopward/backoffice/internal/services"
)

const maxSettingsBodySize = 64 * 1024

// SettingsHandlers exposes shipping template, payment method and tax rate
// configuration endpoints.
type SettingsHandlers struct {
	settings services.SettingsService
}

// NewSettingsHandlers constructs a new SettingsHandlers instance.
func NewSettingsHandlers(settings services.SettingsService) *SettingsHandlers {
	return &SettingsHandlers{settings: settings}
}

// Routes registers the /settings endpoints.
func (h *SettingsHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/shipping-templates", h.listShippingTemplates)
	r.Put("/shipping-templates", h.upsertShippingTemplate)
	r.Delete("/shipping-templates/{templateID}", h.deleteShippingTemplate)

	r.Get("/payment-methods", h.listPaymentMethods)
	r.Put("/payment-methods", h.upsertPaymentMethod)
	r.Delete("/payment-methods/{methodID}", h.deletePaymentMethod)

	r.Get("/tax-rates", h.listTaxRates)
	r.Put("/tax-rates", h.upsertTaxRate)
	r.Delete("/tax-rates/{rateID}", h.deleteTaxRate)
}

func (h *SettingsHandlers) listShippingTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	templates, err := h.settings.ListShippingTemplates(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := shippingTemplateListResponse{Templates: make([]shippingTemplatePayload, 0, len(templates))}
	for _, template := range templates {
		payload.Templates = append(payload.Templates, buildShippingTemplatePayload(template))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *SettingsHandlers) upsertShippingTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req upsertShippingTemplateRequest
	if err := decodeJSONBody(r, maxSettingsBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	template, err := h.settings.UpsertShippingTemplate(ctx, services.UpsertShippingTemplateCommand{
		TemplateID: cloneStringPointer(req.ID),
		Name:       strings.TrimSpace(req.Name),
		FeeBase:    req.FeeBase,
		FeePerKg:   req.FeePerKg,
		FreeOver:   req.FreeOver,
		Regions:    req.Regions,
		IsDefault:  req.IsDefault,
		ActorID:    actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if req.ID == nil {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, shippingTemplateResponse{Template: buildShippingTemplatePayload(template)})
}

func (h *SettingsHandlers) deleteShippingTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.settings.DeleteShippingTemplate(ctx, chi.URLParam(r, "templateID"), actorID(ctx)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandlers) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	methods, err := h.settings.ListPaymentMethods(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := paymentMethodListResponse{Methods: make([]paymentMethodPayload, 0, len(methods))}
	for _, method := range methods {
		payload.Methods = append(payload.Methods, buildPaymentMethodPayload(method))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *SettingsHandlers) upsertPaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req upsertPaymentMethodRequest
	if err := decodeJSONBody(r, maxSettingsBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	method, err := h.settings.UpsertPaymentMethod(ctx, services.UpsertPaymentMethodCommand{
		MethodID:  cloneStringPointer(req.ID),
		Code:      strings.TrimSpace(req.Code),
		Title:     strings.TrimSpace(req.Title),
		Enabled:   req.Enabled,
		SortOrder: req.SortOrder,
		Config:    req.Config,
		ActorID:   actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if req.ID == nil {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, paymentMethodResponse{Method: buildPaymentMethodPayload(method)})
}

func (h *SettingsHandlers) deletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.settings.DeletePaymentMethod(ctx, chi.URLParam(r, "methodID"), actorID(ctx)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SettingsHandlers) listTaxRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rates, err := h.settings.ListTaxRates(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := taxRateListResponse{Rates: make([]taxRatePayload, 0, len(rates))}
	for _, rate := range rates {
		payload.Rates = append(payload.Rates, buildTaxRatePayload(rate))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *SettingsHandlers) upsertTaxRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req upsertTaxRateRequest
	if err := decodeJSONBody(r, maxSettingsBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	rate, err := h.settings.UpsertTaxRate(ctx, services.UpsertTaxRateCommand{
		RateID:  cloneStringPointer(req.ID),
		Name:    strings.TrimSpace(req.Name),
		Region:  strings.TrimSpace(req.Region),
		RateBps: req.RateBps,
		ActorID: actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if req.ID == nil {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, taxRateResponse{Rate: buildTaxRatePayload(rate)})
}

func (h *SettingsHandlers) deleteTaxRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.settings.DeleteTaxRate(ctx, chi.URLParam(r, "rateID"), actorID(ctx)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type upsertShippingTemplateRequest struct {
	ID        *string  `json:"id"`
	Name      string   `json:"name"`
	FeeBase   int64    `json:"fee_base"`
	FeePerKg  int64    `json:"fee_per_kg"`
	FreeOver  *int64   `json:"free_over"`
	Regions   []string `json:"regions"`
	IsDefault bool     `json:"is_default"`
}

type shippingTemplateResponse struct {
	Template shippingTemplatePayload `json:"template"`
}

type shippingTemplateListResponse struct {
	Templates []shippingTemplatePayload `json:"templates"`
}

type shippingTemplatePayload struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	FeeBase   int64    `json:"fee_base"`
	FeePerKg  int64    `json:"fee_per_kg"`
	FreeOver  *int64   `json:"free_over,omitempty"`
	Regions   []string `json:"regions,omitempty"`
	IsDefault bool     `json:"is_default"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type upsertPaymentMethodRequest struct {
	ID        *string        `json:"id"`
	Code      string         `json:"code"`
	Title     string         `json:"title"`
	Enabled   bool           `json:"enabled"`
	SortOrder int            `json:"sort_order"`
	Config    map[string]any `json:"config"`
}

type paymentMethodResponse struct {
	Method paymentMethodPayload `json:"method"`
}

type paymentMethodListResponse struct {
	Methods []paymentMethodPayload `json:"methods"`
}

type paymentMethodPayload struct {
	ID        string         `json:"id"`
	Code      string         `json:"code"`
	Title     string         `json:"title"`
	Enabled   bool           `json:"enabled"`
	SortOrder int            `json:"sort_order"`
	Config    map[string]any `json:"config,omitempty"`
	UpdatedAt string         `json:"updated_at"`
}

type upsertTaxRateRequest struct {
	ID      *string `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	RateBps int     `json:"rate_bps"`
}

type taxRateResponse struct {
	Rate taxRatePayload `json:"rate"`
}

type taxRateListResponse struct {
	Rates []taxRatePayload `json:"rates"`
}

type taxRatePayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Region    string `json:"region"`
	RateBps   int    `json:"rate_bps"`
	UpdatedAt string `json:"updated_at"`
}

func buildShippingTemplatePayload(template services.ShippingTemplate) shippingTemplatePayload {
	return shippingTemplatePayload{
		ID:        template.ID,
		Name:      template.Name,
		FeeBase:   template.FeeBase,
		FeePerKg:  template.FeePerKg,
		FreeOver:  template.FreeOver,
		Regions:   template.Regions,
		IsDefault: template.IsDefault,
		CreatedAt: formatTime(template.CreatedAt),
		UpdatedAt: formatTime(template.UpdatedAt),
	}
}

func buildPaymentMethodPayload(method services.PaymentMethodConfig) paymentMethodPayload {
	return paymentMethodPayload{
		ID:        method.ID,
		Code:      method.Code,
		Title:     method.Title,
		Enabled:   method.Enabled,
		SortOrder: method.SortOrder,
		Config:    method.Config,
		UpdatedAt: formatTime(method.UpdatedAt),
	}
}

func buildTaxRatePayload(rate services.TaxRate) taxRatePayload {
	return taxRatePayload{
		ID:        rate.ID,
		Name:      rate.Name,
		Region:    rate.Region,
		RateBps:   rate.RateBps,
		UpdatedAt: formatTime(rate.UpdatedAt),
	}
}
