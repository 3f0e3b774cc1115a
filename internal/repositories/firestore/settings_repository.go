package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/shopward/backoffice/internal/domain"
	pfirestore "github.com/shopward/backoffice/internal/platform/firestore"
)

const (
	shippingTemplatesCollection = "shippingTemplates"
	paymentMethodsCollection    = "paymentMethods"
	taxRatesCollection          = "taxRates"
)

type shippingTemplateDocument struct {
	Name      string    `firestore:"name"`
	FeeBase   int64     `firestore:"feeBase"`
	FeePerKg  int64     `firestore:"feePerKg"`
	FreeOver  *int64    `firestore:"freeOver,omitempty"`
	Regions   []string  `firestore:"regions,omitempty"`
	IsDefault bool      `firestore:"isDefault"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type paymentMethodDocument struct {
	Code      string         `firestore:"code"`
	Title     string         `firestore:"title"`
	Enabled   bool           `firestore:"enabled"`
	SortOrder int            `firestore:"sortOrder"`
	Config    map[string]any `firestore:"config,omitempty"`
	UpdatedAt time.Time      `firestore:"updatedAt"`
}

type taxRateDocument struct {
	Name      string    `firestore:"name"`
	Region    string    `firestore:"region"`
	RateBps   int       `firestore:"rateBps"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// SettingsRepository stores shipping templates, payment methods and tax rates
// in three flat collections sharing the same lifecycle.
type SettingsRepository struct {
	shipping *pfirestore.Collection[shippingTemplateDocument]
	payments *pfirestore.Collection[paymentMethodDocument]
	taxes    *pfirestore.Collection[taxRateDocument]
}

func NewSettingsRepository(provider *pfirestore.Provider) (*SettingsRepository, error) {
	if provider == nil {
		return nil, errors.New("settings repository requires firestore provider")
	}
	return &SettingsRepository{
		shipping: pfirestore.NewCollection[shippingTemplateDocument](provider, shippingTemplatesCollection),
		payments: pfirestore.NewCollection[paymentMethodDocument](provider, paymentMethodsCollection),
		taxes:    pfirestore.NewCollection[taxRateDocument](provider, taxRatesCollection),
	}, nil
}

func (r *SettingsRepository) UpsertShippingTemplate(ctx context.Context, tpl domain.ShippingTemplate) (domain.ShippingTemplate, error) {
	doc := shippingTemplateDocument{
		Name:      tpl.Name,
		FeeBase:   tpl.FeeBase,
		FeePerKg:  tpl.FeePerKg,
		FreeOver:  tpl.FreeOver,
		Regions:   tpl.Regions,
		IsDefault: tpl.IsDefault,
		CreatedAt: tpl.CreatedAt,
		UpdatedAt: tpl.UpdatedAt,
	}
	if err := r.shipping.Set(ctx, tpl.ID, doc); err != nil {
		return domain.ShippingTemplate{}, err
	}
	return tpl, nil
}

func (r *SettingsRepository) DeleteShippingTemplate(ctx context.Context, templateID string) error {
	if _, err := r.shipping.Get(ctx, templateID); err != nil {
		return err
	}
	return r.shipping.Delete(ctx, templateID)
}

func (r *SettingsRepository) FindShippingTemplate(ctx context.Context, templateID string) (domain.ShippingTemplate, error) {
	doc, err := r.shipping.Get(ctx, templateID)
	if err != nil {
		return domain.ShippingTemplate{}, err
	}
	return doc.toDomain(templateID), nil
}

func (r *SettingsRepository) ListShippingTemplates(ctx context.Context) ([]domain.ShippingTemplate, error) {
	docs, err := r.shipping.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	templates := make([]domain.ShippingTemplate, 0, len(docs))
	for _, doc := range docs {
		templates = append(templates, doc.Data.toDomain(doc.ID))
	}
	return templates, nil
}

func (r *SettingsRepository) UpsertPaymentMethod(ctx context.Context, method domain.PaymentMethodConfig) (domain.PaymentMethodConfig, error) {
	doc := paymentMethodDocument{
		Code:      method.Code,
		Title:     method.Title,
		Enabled:   method.Enabled,
		SortOrder: method.SortOrder,
		Config:    method.Config,
		UpdatedAt: method.UpdatedAt,
	}
	if err := r.payments.Set(ctx, method.ID, doc); err != nil {
		return domain.PaymentMethodConfig{}, err
	}
	return method, nil
}

func (r *SettingsRepository) DeletePaymentMethod(ctx context.Context, methodID string) error {
	if _, err := r.payments.Get(ctx, methodID); err != nil {
		return err
	}
	return r.payments.Delete(ctx, methodID)
}

func (r *SettingsRepository) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodConfig, error) {
	docs, err := r.payments.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("sortOrder", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	methods := make([]domain.PaymentMethodConfig, 0, len(docs))
	for _, doc := range docs {
		methods = append(methods, doc.Data.toDomain(doc.ID))
	}
	return methods, nil
}

func (r *SettingsRepository) UpsertTaxRate(ctx context.Context, rate domain.TaxRate) (domain.TaxRate, error) {
	doc := taxRateDocument{
		Name:      rate.Name,
		Region:    rate.Region,
		RateBps:   rate.RateBps,
		UpdatedAt: rate.UpdatedAt,
	}
	if err := r.taxes.Set(ctx, rate.ID, doc); err != nil {
		return domain.TaxRate{}, err
	}
	return rate, nil
}

func (r *SettingsRepository) DeleteTaxRate(ctx context.Context, rateID string) error {
	if _, err := r.taxes.Get(ctx, rateID); err != nil {
		return err
	}
	return r.taxes.Delete(ctx, rateID)
}

func (r *SettingsRepository) ListTaxRates(ctx context.Context) ([]domain.TaxRate, error) {
	docs, err := r.taxes.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("region", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	rates := make([]domain.TaxRate, 0, len(docs))
	for _, doc := range docs {
		rates = append(rates, doc.Data.toDomain(doc.ID))
	}
	return rates, nil
}

func (d shippingTemplateDocument) toDomain(id string) domain.ShippingTemplate {
	return domain.ShippingTemplate{
		ID:        id,
		Name:      d.Name,
		FeeBase:   d.FeeBase,
		FeePerKg:  d.FeePerKg,
		FreeOver:  d.FreeOver,
		Regions:   d.Regions,
		IsDefault: d.IsDefault,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d paymentMethodDocument) toDomain(id string) domain.PaymentMethodConfig {
	return domain.PaymentMethodConfig{
		ID:        id,
		Code:      d.Code,
		Title:     d.Title,
		Enabled:   d.Enabled,
		SortOrder: d.SortOrder,
		Config:    d.Config,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d taxRateDocument) toDomain(id string) domain.TaxRate {
	return domain.TaxRate{
		ID:        id,
		Name:      d.Name,
		Region:    d.Region,
		RateBps:   d.RateBps,
		UpdatedAt: d.UpdatedAt,
	}
}
