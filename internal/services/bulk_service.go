package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	domain "github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/platform/textutil"
	"github.com/shopward/backoffice/internal/repositories"
)

// Bulk action kinds. Each entity type accepts a subset, see the allow-lists
// below.
const (
	BulkActionSetStatus   = "set_status"
	BulkActionAdjustStock = "adjust_stock"
	BulkActionSetMeta     = "set_meta"
	BulkActionAdjustPrice = "adjust_price"
	BulkActionSetFeatured = "set_featured"
	BulkActionDelete      = "delete"
	BulkActionExport      = "export"
)

// Price adjustment modes for the adjust_price action.
const (
	PriceAdjustAbsolute = "absolute"
	PriceAdjustPercent  = "percent"
)

var (
	productBulkActions = map[string]bool{
		BulkActionSetStatus:   true,
		BulkActionAdjustStock: true,
		BulkActionSetMeta:     true,
		BulkActionAdjustPrice: true,
		BulkActionSetFeatured: true,
		BulkActionDelete:      true,
		BulkActionExport:      true,
	}
	orderBulkActions = map[string]bool{
		BulkActionSetStatus: true,
		BulkActionExport:    true,
	}

	productStatuses = map[string]bool{
		"publish": true,
		"draft":   true,
		"pending": true,
		"private": true,
	}

	adjustablePriceFields = map[string]bool{
		"price_regular": true,
		"price_sale":    true,
		"price_member":  true,
	}
)

// BulkCommand names the target ids, the action and its payload for one batch.
type BulkCommand struct {
	IDs     []string
	Action  string
	Payload BulkPayload
	ActorID string
}

// BulkPayload carries the action-specific parameters. Only the fields for the
// requested action are read; the rest are ignored.
type BulkPayload struct {
	// set_status
	Status string
	// adjust_stock
	StockDelta int
	// set_meta
	Meta map[string]any
	// adjust_price
	PriceMode   string
	PriceValue  float64
	PriceFields []string
	// Precision is the number of decimal places kept after adjustment, 0-4.
	Precision int
	// set_featured
	Featured *bool
	// delete
	Hard bool
	// export
	WithCSV bool
}

// ExportStore persists a rendered export artifact and stamps its signed
// download URL onto the export. Implementations live outside the service
// layer; a nil store keeps exports inline-only.
type ExportStore interface {
	Publish(ctx context.Context, entity string, export *BulkExport) error
}

// BulkServiceDeps bundles collaborators required to construct the bulk service.
type BulkServiceDeps struct {
	Orders     repositories.OrderRepository
	Products   repositories.ProductRepository
	UnitOfWork repositories.UnitOfWork
	Audit      AuditLogService
	Exports    ExportStore
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type bulkService struct {
	orders     repositories.OrderRepository
	products   repositories.ProductRepository
	unitOfWork repositories.UnitOfWork
	audit      AuditLogService
	exports    ExportStore
	clock      func() time.Time
	logger     func(context.Context, string, map[string]any)
}

// NewBulkService wires dependencies into a concrete BulkService implementation.
func NewBulkService(deps BulkServiceDeps) (BulkService, error) {
	if deps.Orders == nil {
		return nil, errors.New("bulk service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("bulk service: product repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &bulkService{
		orders:     deps.Orders,
		products:   deps.Products,
		unitOfWork: deps.UnitOfWork,
		audit:      deps.Audit,
		exports:    deps.Exports,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *bulkService) ExecuteProducts(ctx context.Context, cmd BulkCommand) (BulkOperationSummary, error) {
	if !productBulkActions[cmd.Action] {
		return BulkOperationSummary{}, NewValidationError(CodeInvalidBulkAction, "unknown product bulk action %q", cmd.Action)
	}
	if err := s.validateProductPayload(cmd.Action, cmd.Payload); err != nil {
		return BulkOperationSummary{}, err
	}

	summary := BulkOperationSummary{
		Action: cmd.Action,
		Total:  len(cmd.IDs),
	}

	var exportRows [][]string
	for _, id := range cmd.IDs {
		product, err := s.products.FindByID(ctx, id)
		if err != nil {
			summary.Failures = append(summary.Failures, BulkItemFailure{
				ID:     id,
				Code:   CodeProductNotFound,
				Reason: fmt.Sprintf("product %s not found", id),
			})
			continue
		}

		if cmd.Action == BulkActionExport {
			exportRows = append(exportRows, productExportRow(product))
			summary.Details = append(summary.Details, BulkItemDetail{ID: id})
			continue
		}

		detail, err := s.applyProductAction(ctx, &product, cmd.Action, cmd.Payload)
		if err != nil {
			summary.Failures = append(summary.Failures, failureFor(id, err))
			continue
		}
		if detail.Changed {
			summary.Updated++
		}
		summary.Details = append(summary.Details, detail)
	}

	if cmd.Action == BulkActionExport {
		summary.Export = buildExport(productExportColumns, exportRows, cmd.Payload.WithCSV)
		s.publishExport(ctx, "products", summary.Export)
	}

	summary.CompletedAt = s.clock()
	s.recordAudit(ctx, cmd.ActorID, "product", cmd.Action, summary)
	return s.finish(summary)
}

func (s *bulkService) ExecuteOrders(ctx context.Context, cmd BulkCommand) (BulkOperationSummary, error) {
	if !orderBulkActions[cmd.Action] {
		return BulkOperationSummary{}, NewValidationError(CodeInvalidBulkAction, "unknown order bulk action %q", cmd.Action)
	}
	if cmd.Action == BulkActionSetStatus && !IsValidOrderStatus(domain.OrderStatus(cmd.Payload.Status)) {
		return BulkOperationSummary{}, NewValidationError(CodeInvalidBulkPayload, "unknown order status %q", cmd.Payload.Status)
	}

	summary := BulkOperationSummary{
		Action: cmd.Action,
		Total:  len(cmd.IDs),
	}

	var exportRows [][]string
	for _, id := range cmd.IDs {
		order, err := s.orders.FindByID(ctx, id)
		if err != nil {
			summary.Failures = append(summary.Failures, BulkItemFailure{
				ID:     id,
				Code:   CodeOrderNotFound,
				Reason: fmt.Sprintf("order %s not found", id),
			})
			continue
		}

		if cmd.Action == BulkActionExport {
			exportRows = append(exportRows, orderExportRow(order))
			summary.Details = append(summary.Details, BulkItemDetail{ID: id})
			continue
		}

		detail, err := s.applyOrderStatus(ctx, &order, domain.OrderStatus(cmd.Payload.Status))
		if err != nil {
			summary.Failures = append(summary.Failures, failureFor(id, err))
			continue
		}
		if detail.Changed {
			summary.Updated++
		}
		summary.Details = append(summary.Details, detail)
	}

	if cmd.Action == BulkActionExport {
		summary.Export = buildExport(orderExportColumns, exportRows, cmd.Payload.WithCSV)
		s.publishExport(ctx, "orders", summary.Export)
	}

	summary.CompletedAt = s.clock()
	s.recordAudit(ctx, cmd.ActorID, "order", cmd.Action, summary)
	return s.finish(summary)
}

func (s *bulkService) validateProductPayload(action string, payload BulkPayload) error {
	switch action {
	case BulkActionSetStatus:
		if !productStatuses[payload.Status] {
			return NewValidationError(CodeInvalidBulkPayload, "unknown product status %q", payload.Status)
		}
	case BulkActionAdjustStock:
		if payload.StockDelta == 0 {
			return NewValidationError(CodeInvalidBulkPayload, "stock delta must be non-zero")
		}
	case BulkActionSetMeta:
		if len(textutil.NormalizeMeta(payload.Meta)) == 0 {
			return NewValidationError(CodeInvalidBulkPayload, "meta payload must not be empty")
		}
	case BulkActionAdjustPrice:
		if payload.PriceMode != PriceAdjustAbsolute && payload.PriceMode != PriceAdjustPercent {
			return NewValidationError(CodeInvalidBulkPayload, "price mode must be absolute or percent")
		}
		if payload.PriceValue == 0 {
			return NewValidationError(CodeInvalidBulkPayload, "price value must be non-zero")
		}
		if payload.Precision < 0 || payload.Precision > 4 {
			return NewValidationError(CodeInvalidBulkPayload, "precision must be between 0 and 4")
		}
		fields := allowedPriceFields(payload.PriceFields)
		if len(fields) == 0 {
			return NewValidationError(CodeInvalidBulkPayload, "no adjustable price fields requested")
		}
	case BulkActionSetFeatured:
		if payload.Featured == nil {
			return NewValidationError(CodeInvalidBulkPayload, "featured flag is required")
		}
	}
	return nil
}

func (s *bulkService) applyProductAction(ctx context.Context, product *domain.Product, action string, payload BulkPayload) (BulkItemDetail, error) {
	detail := BulkItemDetail{ID: product.ID}
	now := s.clock()

	switch action {
	case BulkActionSetStatus:
		if product.Status == payload.Status {
			return detail, nil
		}
		product.Status = payload.Status
		detail.Changed = true
		detail.Fields = map[string]any{"status": product.Status}

	case BulkActionAdjustStock:
		total := 0
		for i := range product.Skus {
			next := product.Skus[i].StockQty + payload.StockDelta
			if next < 0 {
				next = 0
			}
			if next != product.Skus[i].StockQty {
				detail.Changed = true
			}
			product.Skus[i].StockQty = next
			total += next
		}
		detail.Fields = map[string]any{"stock_qty": total}
		if !detail.Changed {
			return detail, nil
		}

	case BulkActionSetMeta:
		for key, value := range textutil.NormalizeMeta(payload.Meta) {
			if product.Metadata == nil {
				product.Metadata = map[string]any{}
			}
			if existing, ok := product.Metadata[key]; !ok || existing != value {
				detail.Changed = true
			}
			product.Metadata[key] = value
		}
		detail.Fields = map[string]any{"meta_keys": len(payload.Meta)}
		if !detail.Changed {
			return detail, nil
		}

	case BulkActionAdjustPrice:
		fields := allowedPriceFields(payload.PriceFields)
		for i := range product.Skus {
			sku := &product.Skus[i]
			for _, field := range fields {
				current := skuPriceField(sku, field)
				next := adjustPrice(*current, payload.PriceMode, payload.PriceValue, payload.Precision)
				if next != *current {
					detail.Changed = true
				}
				*current = next
			}
		}
		detail.Fields = map[string]any{"fields": fields, "mode": payload.PriceMode}
		if !detail.Changed {
			return detail, nil
		}

	case BulkActionSetFeatured:
		if product.Featured == *payload.Featured {
			return detail, nil
		}
		product.Featured = *payload.Featured
		detail.Changed = true
		detail.Fields = map[string]any{"featured": product.Featured}

	case BulkActionDelete:
		detail.Changed = true
		if payload.Hard {
			if err := s.products.HardDelete(ctx, product.ID); err != nil {
				return detail, err
			}
			detail.Fields = map[string]any{"deleted": "hard"}
		} else {
			if err := s.products.SoftDelete(ctx, product.ID, now); err != nil {
				return detail, err
			}
			detail.Fields = map[string]any{"deleted": "soft"}
		}
		return detail, nil
	}

	product.UpdatedAt = now
	if err := s.products.Update(ctx, *product); err != nil {
		return detail, err
	}
	return detail, nil
}

func (s *bulkService) applyOrderStatus(ctx context.Context, order *domain.Order, target domain.OrderStatus) (BulkItemDetail, error) {
	detail := BulkItemDetail{ID: order.ID}

	changed, err := TransitionOrderStatus(order.Status, target)
	if err != nil {
		return detail, err
	}
	if !changed {
		return detail, nil
	}

	now := s.clock()
	prev := order.Status
	order.Status = target
	order.UpdatedAt = now
	ApplyStatusTimestamps(order, target, now)

	if err := s.orders.Update(ctx, *order); err != nil {
		return detail, err
	}

	detail.Changed = true
	detail.Fields = map[string]any{"from": string(prev), "to": string(target)}
	return detail, nil
}

// finish applies the partial-failure contract: a batch where nothing succeeded
// is an error carrying the failures; anything else is a success, possibly with
// an embedded failures list.
func (s *bulkService) finish(summary BulkOperationSummary) (BulkOperationSummary, error) {
	if summary.Total > 0 && len(summary.Details) == 0 {
		return summary, NewValidationError(CodePartialBulkFailure, "no items in the batch of %d succeeded", summary.Total)
	}
	return summary, nil
}

func (s *bulkService) recordAudit(ctx context.Context, actor string, targetType string, action string, summary BulkOperationSummary) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditLogRecord{
		Actor:      actor,
		Action:     "bulk." + targetType + "." + action,
		TargetType: targetType,
		TargetID:   "batch",
		Metadata: map[string]any{
			"total":   summary.Total,
			"updated": summary.Updated,
			"failed":  len(summary.Failures),
		},
	})
}

func failureFor(id string, err error) BulkItemFailure {
	var domainErr DomainError
	if errors.As(err, &domainErr) {
		return BulkItemFailure{ID: id, Code: domainErr.Code(), Reason: domainErr.SafeMessage()}
	}
	return BulkItemFailure{ID: id, Code: "write_failed", Reason: err.Error()}
}

func allowedPriceFields(requested []string) []string {
	var fields []string
	for _, field := range requested {
		if adjustablePriceFields[field] {
			fields = append(fields, field)
		}
	}
	return fields
}

func skuPriceField(sku *domain.ProductSku, field string) *int64 {
	switch field {
	case "price_regular":
		return &sku.PriceRegular
	case "price_sale":
		return &sku.PriceSale
	default:
		return &sku.PriceMember
	}
}

// adjustPrice applies the delta to a minor-unit amount, clamps at zero and
// rounds to the requested decimal precision. Amounts carry two decimals, so
// precisions of 2 and above keep the value as computed, while 0 and 1 round
// away the last minor-unit digits. Absolute deltas are given in major units.
func adjustPrice(current int64, mode string, value float64, precision int) int64 {
	var next float64
	if mode == PriceAdjustPercent {
		next = float64(current) + float64(current)*value/100
	} else {
		next = float64(current) + value*100
	}
	if next < 0 {
		next = 0
	}

	rounded := int64(math.Round(next))
	if precision < 2 {
		step := int64(math.Pow10(2 - precision))
		rounded = int64(math.Round(float64(rounded)/float64(step))) * step
	}
	return rounded
}

// Export -------------------------------------------------------------------

var productExportColumns = []string{"id", "title", "status", "featured", "price_regular", "stock_qty", "updated_at"}

var orderExportColumns = []string{"id", "order_number", "status", "user_id", "currency", "total", "updated_at"}

func productExportRow(product domain.Product) []string {
	var priceRegular int64
	stock := 0
	for i, sku := range product.Skus {
		if i == 0 {
			priceRegular = sku.PriceRegular
		}
		stock += sku.StockQty
	}
	return []string{
		product.ID,
		product.Title,
		product.Status,
		strconv.FormatBool(product.Featured),
		formatMinorUnits(priceRegular),
		strconv.Itoa(stock),
		product.UpdatedAt.Format(time.RFC3339),
	}
}

func orderExportRow(order domain.Order) []string {
	return []string{
		order.ID,
		order.OrderNumber,
		string(order.Status),
		order.UserID,
		order.Currency,
		formatMinorUnits(order.Totals.Total),
		order.UpdatedAt.Format(time.RFC3339),
	}
}

// publishExport hands the rendered artifact to the export store when one is
// configured. Upload trouble never fails the batch; the caller still gets the
// inline rows and an empty download URL.
func (s *bulkService) publishExport(ctx context.Context, entity string, export *BulkExport) {
	if s.exports == nil || export == nil || export.CSV == "" {
		return
	}
	if err := s.exports.Publish(ctx, entity, export); err != nil {
		s.logger(ctx, "bulk.export.publish_failed", map[string]any{
			"entity": entity,
			"error":  err.Error(),
		})
	}
}

func buildExport(columns []string, rows [][]string, withCSV bool) *BulkExport {
	export := &BulkExport{Columns: columns, Rows: rows}
	if !withCSV {
		return export
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(columns)
	for _, row := range rows {
		_ = w.Write(row)
	}
	w.Flush()
	export.CSV = sb.String()
	return export
}

func formatMinorUnits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
