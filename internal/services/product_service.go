package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/platform/textutil"
	"github.com/shopward/backoffice/internal/repositories"
)

const (
	productIDPrefix = "prd_"
	skuIDPrefix     = "sku_"
)

var (
	// ErrProductInvalidInput signals the caller provided invalid data.
	ErrProductInvalidInput = errors.New("product: invalid input")
	// ErrProductNotFound indicates the product could not be located.
	ErrProductNotFound = errors.New("product: not found")
	// ErrProductConflict indicates duplicate writes or concurrent conflicts.
	ErrProductConflict = errors.New("product: conflict")
)

// ProductServiceDeps bundles collaborators required to construct the product service.
type ProductServiceDeps struct {
	Products    repositories.ProductRepository
	UnitOfWork  repositories.UnitOfWork
	Audit       AuditLogService
	Clock       func() time.Time
	IDGenerator func() string
}

type productService struct {
	products   repositories.ProductRepository
	unitOfWork repositories.UnitOfWork
	audit      AuditLogService
	clock      func() time.Time
	newID      func() string
}

// NewProductService wires dependencies into a concrete ProductService implementation.
func NewProductService(deps ProductServiceDeps) (ProductService, error) {
	if deps.Products == nil {
		return nil, errors.New("product service: product repository is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
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

	return &productService{
		products:   deps.Products,
		unitOfWork: unit,
		audit:      deps.Audit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *productService) Create(ctx context.Context, cmd CreateProductCommand) (Product, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return Product{}, fmt.Errorf("%w: title is required", ErrProductInvalidInput)
	}
	status := strings.TrimSpace(cmd.Status)
	if status == "" {
		status = "draft"
	}
	if !productStatuses[status] {
		return Product{}, fmt.Errorf("%w: unknown status %q", ErrProductInvalidInput, status)
	}

	skus, err := SanitizeSkus(cmd.Skus, cmd.Defaults)
	if err != nil {
		return Product{}, err
	}

	now := s.clock()
	product := Product{
		ID:        productIDPrefix + s.newID(),
		Title:     title,
		Status:    status,
		Featured:  cmd.Featured,
		Metadata:  textutil.NormalizeMeta(cmd.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	product.Skus = s.assignSkuIDs(product.ID, skus)

	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.products.Insert(txCtx, product); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, "product.create", product.ID, map[string]any{
		"title":    product.Title,
		"skuCount": len(product.Skus),
	})
	return product, nil
}

func (s *productService) Update(ctx context.Context, cmd UpdateProductCommand) (Product, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	if cmd.Title != nil {
		title := strings.TrimSpace(*cmd.Title)
		if title == "" {
			return Product{}, fmt.Errorf("%w: title must not be blank", ErrProductInvalidInput)
		}
		product.Title = title
	}
	if cmd.Status != nil {
		status := strings.TrimSpace(*cmd.Status)
		if !productStatuses[status] {
			return Product{}, fmt.Errorf("%w: unknown status %q", ErrProductInvalidInput, status)
		}
		product.Status = status
	}
	for key, value := range textutil.NormalizeMeta(cmd.Metadata) {
		if product.Metadata == nil {
			product.Metadata = map[string]any{}
		}
		product.Metadata[key] = value
	}

	product.UpdatedAt = s.clock()
	if err := s.products.Update(ctx, product); err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	s.recordAudit(ctx, cmd.ActorID, "product.update", product.ID, nil)
	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, productID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return Product{}, s.mapRepositoryError(err)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[Product], error) {
	page, err := s.products.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Product]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *productService) ReplaceSkus(ctx context.Context, cmd ReplaceSkusCommand) (Product, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	skus, err := SanitizeSkus(cmd.Skus, cmd.Defaults)
	if err != nil {
		return Product{}, err
	}

	now := s.clock()
	product.Skus = s.assignSkuIDs(product.ID, skus)
	product.UpdatedAt = now

	err = s.unitOfWork.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.products.ReplaceSkus(txCtx, product.ID, product.Skus); err != nil {
			return s.mapRepositoryError(err)
		}
		if err := s.products.Update(txCtx, product); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Product{}, err
	}

	s.recordAudit(ctx, cmd.ActorID, "product.skus.replace", product.ID, map[string]any{
		"skuCount": len(product.Skus),
	})
	return product, nil
}

func (s *productService) AdjustStock(ctx context.Context, cmd AdjustStockCommand) (int, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	skuID := strings.TrimSpace(cmd.SkuID)
	if productID == "" || skuID == "" {
		return 0, fmt.Errorf("%w: product id and sku id are required", ErrProductInvalidInput)
	}

	newQty, err := s.products.AdjustStock(ctx, productID, skuID, cmd.Delta)
	if err != nil {
		return 0, s.mapRepositoryError(err)
	}

	s.recordAudit(ctx, cmd.ActorID, "product.stock.adjust", productID, map[string]any{
		"skuId":  skuID,
		"delta":  cmd.Delta,
		"newQty": newQty,
	})
	return newQty, nil
}

func (s *productService) SetFeatured(ctx context.Context, productID string, featured bool, actorID string) (Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return Product{}, s.mapRepositoryError(err)
	}
	if product.Featured == featured {
		return product, nil
	}

	product.Featured = featured
	product.UpdatedAt = s.clock()
	if err := s.products.Update(ctx, product); err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	s.recordAudit(ctx, actorID, "product.featured.set", product.ID, map[string]any{
		"featured": featured,
	})
	return product, nil
}

func (s *productService) Delete(ctx context.Context, cmd DeleteProductCommand) error {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrProductInvalidInput)
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return s.mapRepositoryError(err)
	}

	var err error
	if cmd.Hard {
		err = s.products.HardDelete(ctx, productID)
	} else {
		err = s.products.SoftDelete(ctx, productID, s.clock())
	}
	if err != nil {
		return s.mapRepositoryError(err)
	}

	mode := "soft"
	if cmd.Hard {
		mode = "hard"
	}
	s.recordAudit(ctx, cmd.ActorID, "product.delete", productID, map[string]any{
		"mode": mode,
	})
	return nil
}

func (s *productService) assignSkuIDs(productID string, skus []domain.ProductSku) []domain.ProductSku {
	for i := range skus {
		if skus[i].ID == "" {
			skus[i].ID = skuIDPrefix + s.newID()
		}
		skus[i].ProductID = productID
	}
	return skus
}

func (s *productService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrProductNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrProductConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("product: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *productService) recordAudit(ctx context.Context, actor string, action string, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditLogRecord{
		Actor:      actor,
		Action:     action,
		TargetType: "product",
		TargetID:   targetID,
		Metadata:   metadata,
	})
}
