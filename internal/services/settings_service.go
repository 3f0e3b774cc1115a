package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shopward/backoffice/internal/repositories"
)

const (
	shippingTemplateIDPrefix = "shp_"
	paymentMethodIDPrefix    = "pay_"
	taxRateIDPrefix          = "tax_"
)

// SettingsServiceDeps bundles collaborators required to construct the settings service.
type SettingsServiceDeps struct {
	Settings    repositories.SettingsRepository
	Audit       AuditLogService
	Clock       func() time.Time
	IDGenerator func() string
}

type settingsService struct {
	settings repositories.SettingsRepository
	audit    AuditLogService
	clock    func() time.Time
	newID    func() string
}

// NewSettingsService wires dependencies into a concrete SettingsService implementation.
func NewSettingsService(deps SettingsServiceDeps) (SettingsService, error) {
	if deps.Settings == nil {
		return nil, errors.New("settings service: settings repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	return &settingsService{
		settings: deps.Settings,
		audit:    deps.Audit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *settingsService) UpsertShippingTemplate(ctx context.Context, cmd UpsertShippingTemplateCommand) (ShippingTemplate, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return ShippingTemplate{}, NewValidationError(CodeInvalidSettings, "shipping template name is required")
	}
	if cmd.FeeBase < 0 || cmd.FeePerKg < 0 {
		return ShippingTemplate{}, NewValidationError(CodeInvalidSettings, "shipping fees must not be negative")
	}
	if cmd.FreeOver != nil && *cmd.FreeOver <= 0 {
		return ShippingTemplate{}, NewValidationError(CodeInvalidSettings, "free shipping threshold must be positive")
	}

	now := s.clock()
	tpl := ShippingTemplate{
		Name:      name,
		FeeBase:   cmd.FeeBase,
		FeePerKg:  cmd.FeePerKg,
		FreeOver:  cmd.FreeOver,
		Regions:   cmd.Regions,
		IsDefault: cmd.IsDefault,
		UpdatedAt: now,
	}
	if cmd.TemplateID != nil && strings.TrimSpace(*cmd.TemplateID) != "" {
		existing, err := s.settings.FindShippingTemplate(ctx, strings.TrimSpace(*cmd.TemplateID))
		if err != nil {
			return ShippingTemplate{}, s.mapNotFound(err, "shipping template %s not found", *cmd.TemplateID)
		}
		tpl.ID = existing.ID
		tpl.CreatedAt = existing.CreatedAt
	} else {
		tpl.ID = shippingTemplateIDPrefix + s.newID()
		tpl.CreatedAt = now
	}

	stored, err := s.settings.UpsertShippingTemplate(ctx, tpl)
	if err != nil {
		return ShippingTemplate{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, "settings.shipping.upsert", "shipping_template", stored.ID)
	return stored, nil
}

func (s *settingsService) DeleteShippingTemplate(ctx context.Context, templateID string, actorID string) error {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return NewValidationError(CodeInvalidSettings, "shipping template id is required")
	}
	if err := s.settings.DeleteShippingTemplate(ctx, templateID); err != nil {
		return s.mapNotFound(err, "shipping template %s not found", templateID)
	}
	s.recordAudit(ctx, actorID, "settings.shipping.delete", "shipping_template", templateID)
	return nil
}

func (s *settingsService) ListShippingTemplates(ctx context.Context) ([]ShippingTemplate, error) {
	return s.settings.ListShippingTemplates(ctx)
}

func (s *settingsService) UpsertPaymentMethod(ctx context.Context, cmd UpsertPaymentMethodCommand) (PaymentMethodConfig, error) {
	code := strings.TrimSpace(cmd.Code)
	title := strings.TrimSpace(cmd.Title)
	if code == "" || title == "" {
		return PaymentMethodConfig{}, NewValidationError(CodeInvalidSettings, "payment method code and title are required")
	}

	method := PaymentMethodConfig{
		Code:      code,
		Title:     title,
		Enabled:   cmd.Enabled,
		SortOrder: cmd.SortOrder,
		Config:    cloneMap(cmd.Config),
		UpdatedAt: s.clock(),
	}
	if cmd.MethodID != nil && strings.TrimSpace(*cmd.MethodID) != "" {
		method.ID = strings.TrimSpace(*cmd.MethodID)
	} else {
		method.ID = paymentMethodIDPrefix + s.newID()
	}

	stored, err := s.settings.UpsertPaymentMethod(ctx, method)
	if err != nil {
		return PaymentMethodConfig{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, "settings.payment.upsert", "payment_method", stored.ID)
	return stored, nil
}

func (s *settingsService) DeletePaymentMethod(ctx context.Context, methodID string, actorID string) error {
	methodID = strings.TrimSpace(methodID)
	if methodID == "" {
		return NewValidationError(CodeInvalidSettings, "payment method id is required")
	}
	if err := s.settings.DeletePaymentMethod(ctx, methodID); err != nil {
		return s.mapNotFound(err, "payment method %s not found", methodID)
	}
	s.recordAudit(ctx, actorID, "settings.payment.delete", "payment_method", methodID)
	return nil
}

func (s *settingsService) ListPaymentMethods(ctx context.Context) ([]PaymentMethodConfig, error) {
	return s.settings.ListPaymentMethods(ctx)
}

func (s *settingsService) UpsertTaxRate(ctx context.Context, cmd UpsertTaxRateCommand) (TaxRate, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return TaxRate{}, NewValidationError(CodeInvalidSettings, "tax rate name is required")
	}
	if cmd.RateBps < 0 || cmd.RateBps > 10000 {
		return TaxRate{}, NewValidationError(CodeInvalidSettings, "tax rate must be between 0 and 10000 basis points")
	}

	rate := TaxRate{
		Name:      name,
		Region:    strings.TrimSpace(cmd.Region),
		RateBps:   cmd.RateBps,
		UpdatedAt: s.clock(),
	}
	if cmd.RateID != nil && strings.TrimSpace(*cmd.RateID) != "" {
		rate.ID = strings.TrimSpace(*cmd.RateID)
	} else {
		rate.ID = taxRateIDPrefix + s.newID()
	}

	stored, err := s.settings.UpsertTaxRate(ctx, rate)
	if err != nil {
		return TaxRate{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, "settings.tax.upsert", "tax_rate", stored.ID)
	return stored, nil
}

func (s *settingsService) DeleteTaxRate(ctx context.Context, rateID string, actorID string) error {
	rateID = strings.TrimSpace(rateID)
	if rateID == "" {
		return NewValidationError(CodeInvalidSettings, "tax rate id is required")
	}
	if err := s.settings.DeleteTaxRate(ctx, rateID); err != nil {
		return s.mapNotFound(err, "tax rate %s not found", rateID)
	}
	s.recordAudit(ctx, actorID, "settings.tax.delete", "tax_rate", rateID)
	return nil
}

func (s *settingsService) ListTaxRates(ctx context.Context) ([]TaxRate, error) {
	return s.settings.ListTaxRates(ctx)
}

func (s *settingsService) recordAudit(ctx context.Context, actor string, action string, targetType string, targetID string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditLogRecord{
		Actor:      actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	})
}

func (s *settingsService) mapNotFound(err error, format string, args ...any) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return NewNotFoundError(CodeSettingsNotFound, format, args...)
	}
	return err
}
