package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/shopward/backoffice/internal/domain"
	pfirestore "github.com/shopward/backoffice/internal/platform/firestore"
	"github.com/shopward/backoffice/internal/platform/pagination"
	"github.com/shopward/backoffice/internal/repositories"
)

const (
	productsCollection = "products"
	skusCollection     = "skus"
)

type productDocument struct {
	Title     string         `firestore:"title"`
	Status    string         `firestore:"status"`
	Featured  bool           `firestore:"featured"`
	Metadata  map[string]any `firestore:"metadata,omitempty"`
	DeletedAt *time.Time     `firestore:"deletedAt,omitempty"`
	CreatedAt time.Time      `firestore:"createdAt"`
	UpdatedAt time.Time      `firestore:"updatedAt"`
}

type skuDocument struct {
	SkuCode      string            `firestore:"skuCode"`
	Attributes   map[string]any    `firestore:"attributes,omitempty"`
	PriceRegular int64             `firestore:"priceRegular"`
	PriceSale    int64             `firestore:"priceSale"`
	PriceMember  int64             `firestore:"priceMember,omitempty"`
	StockQty     int               `firestore:"stockQty"`
	TierPrices   []tierPriceRecord `firestore:"tierPrices,omitempty"`
	WeightGrams  *int              `firestore:"weightGrams,omitempty"`
	Barcode      string            `firestore:"barcode,omitempty"`
	SortOrder    int               `firestore:"sortOrder"`
}

type tierPriceRecord struct {
	MinQty int    `firestore:"minQty"`
	MaxQty *int   `firestore:"maxQty,omitempty"`
	Price  int64  `firestore:"price"`
	Note   string `firestore:"note,omitempty"`
}

// ProductRepository persists products with SKUs as a subcollection.
type ProductRepository struct {
	provider *pfirestore.Provider
	products *pfirestore.Collection[productDocument]
}

func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		provider: provider,
		products: pfirestore.NewCollection[productDocument](provider, productsCollection),
	}, nil
}

func (r *ProductRepository) skus(productID string) *pfirestore.Collection[skuDocument] {
	return pfirestore.NewCollection[skuDocument](r.provider, fmt.Sprintf("%s/%s/%s", productsCollection, productID, skusCollection))
}

func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if err := r.products.Create(ctx, product.ID, newProductDocument(product)); err != nil {
		return err
	}
	return r.writeSkus(ctx, r.skus(product.ID), product.Skus)
}

func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if err := r.products.Set(ctx, product.ID, newProductDocument(product)); err != nil {
		return err
	}
	// SKU edits ride along on header writes; the SKU set itself only changes
	// through ReplaceSkus.
	for _, sku := range product.Skus {
		if sku.ID == "" {
			continue
		}
		if err := r.skus(product.ID).Set(ctx, sku.ID, newSkuDocument(sku)); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProductRepository) SoftDelete(ctx context.Context, productID string, deletedAt time.Time) error {
	doc, err := r.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	doc.DeletedAt = &deletedAt
	doc.UpdatedAt = deletedAt
	return r.products.Set(ctx, productID, doc)
}

func (r *ProductRepository) HardDelete(ctx context.Context, productID string) error {
	if err := r.skus(productID).DeleteAll(ctx); err != nil {
		return err
	}
	return r.products.Delete(ctx, productID)
}

func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	doc, err := r.products.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	product := doc.toDomain(productID)

	skuDocs, err := r.skus(productID).Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("sortOrder", firestore.Asc)
	})
	if err != nil {
		return domain.Product{}, err
	}
	product.Skus = make([]domain.ProductSku, 0, len(skuDocs))
	for _, sd := range skuDocs {
		product.Skus = append(product.Skus, sd.Data.toDomain(sd.ID, productID))
	}
	return product, nil
}

func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	pager := pagination.Normalize(filter.Pagination)
	cursor, err := pagination.DecodeToken(pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.Status != "" {
			q = q.Where("status", "==", filter.Status)
		}
		if filter.FeaturedOnly {
			q = q.Where("featured", "==", true)
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pager.PageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	page := domain.CursorPage[domain.Product]{}
	count := 0
	for _, doc := range docs {
		if !filter.IncludeDeleted && doc.Data.DeletedAt != nil {
			continue
		}
		if count == pager.PageSize {
			page.NextPageToken = pagination.EncodeToken(pagination.Cursor{
				StartAfter: []any{doc.Data.CreatedAt, doc.ID},
			})
			break
		}
		page.Items = append(page.Items, doc.Data.toDomain(doc.ID))
		count++
	}
	return page, nil
}

func (r *ProductRepository) ReplaceSkus(ctx context.Context, productID string, skus []domain.ProductSku) error {
	coll := r.skus(productID)
	if err := coll.DeleteAll(ctx); err != nil {
		return err
	}
	return r.writeSkus(ctx, coll, skus)
}

// AdjustStock applies the delta inside a transaction and clamps at zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, skuID string, delta int) (int, error) {
	coll := r.skus(productID)
	newQty := 0
	err := r.provider.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := coll.Get(txCtx, skuID)
		if err != nil {
			return err
		}
		doc.StockQty += delta
		if doc.StockQty < 0 {
			doc.StockQty = 0
		}
		newQty = doc.StockQty
		return coll.Set(txCtx, skuID, doc)
	})
	if err != nil {
		return 0, err
	}
	return newQty, nil
}

func (r *ProductRepository) writeSkus(ctx context.Context, coll *pfirestore.Collection[skuDocument], skus []domain.ProductSku) error {
	for _, sku := range skus {
		if err := coll.Set(ctx, sku.ID, newSkuDocument(sku)); err != nil {
			return err
		}
	}
	return nil
}

func newProductDocument(product domain.Product) productDocument {
	return productDocument{
		Title:     product.Title,
		Status:    product.Status,
		Featured:  product.Featured,
		Metadata:  product.Metadata,
		DeletedAt: product.DeletedAt,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:        id,
		Title:     d.Title,
		Status:    d.Status,
		Featured:  d.Featured,
		Metadata:  d.Metadata,
		DeletedAt: d.DeletedAt,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func newSkuDocument(sku domain.ProductSku) skuDocument {
	tiers := make([]tierPriceRecord, 0, len(sku.TierPrices))
	for _, tier := range sku.TierPrices {
		tiers = append(tiers, tierPriceRecord(tier))
	}
	return skuDocument{
		SkuCode:      sku.SkuCode,
		Attributes:   sku.Attributes,
		PriceRegular: sku.PriceRegular,
		PriceSale:    sku.PriceSale,
		PriceMember:  sku.PriceMember,
		StockQty:     sku.StockQty,
		TierPrices:   tiers,
		WeightGrams:  sku.WeightGrams,
		Barcode:      sku.Barcode,
		SortOrder:    sku.SortOrder,
	}
}

func (d skuDocument) toDomain(id string, productID string) domain.ProductSku {
	tiers := make([]domain.TierPrice, 0, len(d.TierPrices))
	for _, tier := range d.TierPrices {
		tiers = append(tiers, domain.TierPrice(tier))
	}
	return domain.ProductSku{
		ID:           id,
		ProductID:    productID,
		SkuCode:      d.SkuCode,
		Attributes:   d.Attributes,
		PriceRegular: d.PriceRegular,
		PriceSale:    d.PriceSale,
		PriceMember:  d.PriceMember,
		StockQty:     d.StockQty,
		TierPrices:   tiers,
		WeightGrams:  d.WeightGrams,
		Barcode:      d.Barcode,
		SortOrder:    d.SortOrder,
	}
}
