package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/shopward/backoffice/internal/domain"
)

func newProductFixture(t *testing.T, products *stubProductRepository) (ProductService, *recordingAudit) {
	t.Helper()
	if products == nil {
		products = &stubProductRepository{}
	}
	audit := &recordingAudit{}

	svc, err := NewProductService(ProductServiceDeps{
		Products:    products,
		Audit:       audit,
		Clock:       fixedClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)),
		IDGenerator: sequentialIDs("TEST"),
	})
	if err != nil {
		t.Fatalf("NewProductService() error = %v", err)
	}
	return svc, audit
}

func TestProductServiceCreate(t *testing.T) {
	var inserted domain.Product
	products := &stubProductRepository{
		insertFn: func(ctx context.Context, product domain.Product) error {
			inserted = product
			return nil
		},
	}
	svc, audit := newProductFixture(t, products)

	product, err := svc.Create(context.Background(), CreateProductCommand{
		Title: "  Walnut desk organizer  ",
		Skus: []RawSku{
			{SkuCode: " WDO-L ", PriceRegular: 4200},
			{SkuCode: "WDO-S"},
		},
		Defaults: PriceDefaults{PriceRegular: 2100, StockQty: 5},
		Metadata: map[string]any{"  origin  ": "jp", "": "dropped"},
		ActorID:  "staff_1",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if product.Title != "Walnut desk organizer" {
		t.Fatalf("unexpected title %q", product.Title)
	}
	if product.Status != "draft" {
		t.Fatalf("expected default draft status, got %q", product.Status)
	}
	if product.ID != "prd_TEST0001" {
		t.Fatalf("unexpected product id %q", product.ID)
	}
	if len(product.Skus) != 2 {
		t.Fatalf("expected 2 skus, got %d", len(product.Skus))
	}
	for _, sku := range product.Skus {
		if sku.ProductID != product.ID {
			t.Fatalf("sku %q not linked to product: %q", sku.SkuCode, sku.ProductID)
		}
		if len(sku.ID) < len("sku_") || sku.ID[:4] != "sku_" {
			t.Fatalf("sku %q has unexpected id %q", sku.SkuCode, sku.ID)
		}
	}
	if product.Skus[0].SkuCode != "WDO-L" || product.Skus[0].PriceRegular != 4200 {
		t.Fatalf("unexpected first sku: %+v", product.Skus[0])
	}
	if product.Skus[1].PriceRegular != 2100 || product.Skus[1].StockQty != 5 {
		t.Fatalf("defaults not applied: %+v", product.Skus[1])
	}
	if _, ok := product.Metadata["origin"]; !ok {
		t.Fatalf("metadata keys not normalized: %+v", product.Metadata)
	}
	if _, ok := product.Metadata[""]; ok {
		t.Fatalf("blank metadata key survived: %+v", product.Metadata)
	}
	if inserted.ID != product.ID {
		t.Fatalf("repository saw different product: %q", inserted.ID)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "product.create" {
		t.Fatalf("unexpected audit trail: %+v", audit.records)
	}
}

func TestProductServiceCreateRejectsDuplicateSkuCodes(t *testing.T) {
	svc, _ := newProductFixture(t, nil)

	_, err := svc.Create(context.Background(), CreateProductCommand{
		Title: "Duplicated",
		Skus: []RawSku{
			{SkuCode: "ABC", PriceRegular: 100},
			{SkuCode: " ABC ", PriceRegular: 200},
		},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.ErrCode != CodeDuplicateSkuCode {
		t.Fatalf("expected %s, got %v", CodeDuplicateSkuCode, err)
	}
}

func TestProductServiceCreateRejectsUnknownStatus(t *testing.T) {
	svc, _ := newProductFixture(t, nil)

	_, err := svc.Create(context.Background(), CreateProductCommand{
		Title:  "Bad status",
		Status: "archived",
	})
	if !errors.Is(err, ErrProductInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestProductServiceUpdateMergesMetadata(t *testing.T) {
	existing := domain.Product{
		ID:       "prd_1",
		Title:    "Old title",
		Status:   "draft",
		Metadata: map[string]any{"origin": "jp"},
	}
	var updated domain.Product
	products := &stubProductRepository{
		findFn: func(ctx context.Context, productID string) (domain.Product, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, product domain.Product) error {
			updated = product
			return nil
		},
	}
	svc, _ := newProductFixture(t, products)

	status := "publish"
	product, err := svc.Update(context.Background(), UpdateProductCommand{
		ProductID: "prd_1",
		Status:    &status,
		Metadata:  map[string]any{" material ": "walnut"},
		ActorID:   "staff_1",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if product.Status != "publish" {
		t.Fatalf("status not applied: %q", product.Status)
	}
	if product.Title != "Old title" {
		t.Fatalf("title should be untouched, got %q", product.Title)
	}
	if product.Metadata["origin"] != "jp" || product.Metadata["material"] != "walnut" {
		t.Fatalf("metadata not merged: %+v", product.Metadata)
	}
	if updated.UpdatedAt.IsZero() {
		t.Fatal("updated_at not set")
	}
}

func TestProductServiceGetMapsNotFound(t *testing.T) {
	products := &stubProductRepository{
		findFn: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{}, notFoundErr("product missing")
		},
	}
	svc, _ := newProductFixture(t, products)

	_, err := svc.GetProduct(context.Background(), "prd_missing")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProductServiceAdjustStock(t *testing.T) {
	var gotDelta int
	products := &stubProductRepository{
		adjustStockFn: func(ctx context.Context, productID string, skuID string, delta int) (int, error) {
			gotDelta = delta
			return 7, nil
		},
	}
	svc, audit := newProductFixture(t, products)

	qty, err := svc.AdjustStock(context.Background(), AdjustStockCommand{
		ProductID: "prd_1",
		SkuID:     "sku_1",
		Delta:     -3,
		ActorID:   "staff_1",
	})
	if err != nil {
		t.Fatalf("AdjustStock() error = %v", err)
	}
	if qty != 7 || gotDelta != -3 {
		t.Fatalf("unexpected result qty=%d delta=%d", qty, gotDelta)
	}
	if len(audit.records) != 1 || audit.records[0].Action != "product.stock.adjust" {
		t.Fatalf("unexpected audit trail: %+v", audit.records)
	}
}

func TestProductServiceSetFeaturedSkipsNoop(t *testing.T) {
	products := &stubProductRepository{
		findFn: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: "prd_1", Featured: true}, nil
		},
	}
	svc, audit := newProductFixture(t, products)

	product, err := svc.SetFeatured(context.Background(), "prd_1", true, "staff_1")
	if err != nil {
		t.Fatalf("SetFeatured() error = %v", err)
	}
	if !product.Featured {
		t.Fatal("featured flag lost")
	}
	// No write and no audit record when the flag already matches.
	if len(audit.records) != 0 {
		t.Fatalf("expected no audit records, got %+v", audit.records)
	}
}

func TestProductServiceDeleteModes(t *testing.T) {
	var softCalled, hardCalled bool
	products := &stubProductRepository{
		findFn: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: productID}, nil
		},
		softDeleteFn: func(ctx context.Context, productID string, deletedAt time.Time) error {
			softCalled = true
			return nil
		},
		hardDeleteFn: func(ctx context.Context, productID string) error {
			hardCalled = true
			return nil
		},
	}
	svc, audit := newProductFixture(t, products)

	if err := svc.Delete(context.Background(), DeleteProductCommand{ProductID: "prd_1", ActorID: "staff_1"}); err != nil {
		t.Fatalf("soft Delete() error = %v", err)
	}
	if !softCalled || hardCalled {
		t.Fatalf("expected soft delete only: soft=%v hard=%v", softCalled, hardCalled)
	}

	if err := svc.Delete(context.Background(), DeleteProductCommand{ProductID: "prd_1", Hard: true, ActorID: "staff_1"}); err != nil {
		t.Fatalf("hard Delete() error = %v", err)
	}
	if !hardCalled {
		t.Fatal("hard delete not invoked")
	}
	if len(audit.records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(audit.records))
	}
	if audit.records[0].Metadata["mode"] != "soft" || audit.records[1].Metadata["mode"] != "hard" {
		t.Fatalf("unexpected delete modes: %+v", audit.records)
	}
}

func TestProductServiceReplaceSkus(t *testing.T) {
	var replaced []domain.ProductSku
	products := &stubProductRepository{
		findFn: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{ID: productID, Title: "Existing"}, nil
		},
		replaceSkusFn: func(ctx context.Context, productID string, skus []domain.ProductSku) error {
			replaced = skus
			return nil
		},
		updateFn: func(ctx context.Context, product domain.Product) error {
			return nil
		},
	}
	svc, _ := newProductFixture(t, products)

	product, err := svc.ReplaceSkus(context.Background(), ReplaceSkusCommand{
		ProductID: "prd_1",
		Skus: []RawSku{
			{SkuCode: "NEW-1", PriceRegular: 900},
		},
		ActorID: "staff_1",
	})
	if err != nil {
		t.Fatalf("ReplaceSkus() error = %v", err)
	}
	if len(replaced) != 1 || replaced[0].SkuCode != "NEW-1" {
		t.Fatalf("unexpected replacement set: %+v", replaced)
	}
	if replaced[0].ProductID != "prd_1" {
		t.Fatalf("sku not linked to product: %+v", replaced[0])
	}
	if len(product.Skus) != 1 {
		t.Fatalf("returned product missing skus: %+v", product.Skus)
	}
}
