package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopward/backoffice/internal/platform/httpx"
	"github.com/shopward/backoffice/internal/platform/pagination"
	"github.com/shopward/backoffice/internal/services"
)

const maxProductBodySize = 256 * 1024

// ProductHandlers exposes catalog product and SKU endpoints.
type ProductHandlers struct {
	products services.ProductService
}

// NewProductHandlers constructs a new ProductHandlers instance.
func NewProductHandlers(products services.ProductService) *ProductHandlers {
	return &ProductHandlers{products: products}
}

// Routes registers the /products endpoints.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createProduct)
	r.Get("/", h.listProducts)
	r.Get("/{productID}", h.getProduct)
	r.Patch("/{productID}", h.updateProduct)
	r.Put("/{productID}/skus", h.replaceSkus)
	r.Post("/{productID}/stock-adjustments", h.adjustStock)
	r.Put("/{productID}/featured", h.setFeatured)
	r.Delete("/{productID}", h.deleteProduct)
}

func (h *ProductHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createProductRequest
	if err := decodeJSONBody(r, maxProductBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.products.Create(ctx, services.CreateProductCommand{
		Title:    strings.TrimSpace(req.Title),
		Status:   strings.TrimSpace(req.Status),
		Featured: req.Featured,
		Skus:     buildRawSkus(req.Skus),
		Defaults: buildPriceDefaults(req.Defaults),
		Metadata: req.Metadata,
		ActorID:  actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, productResponse{Product: buildProductPayload(product)})
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := pagination.FromRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page token is malformed", http.StatusBadRequest))
		return
	}

	query := r.URL.Query()
	filter := services.ProductListFilter{
		Status:         strings.TrimSpace(query.Get("status")),
		FeaturedOnly:   query.Get("featured") == "true",
		IncludeDeleted: query.Get("include_deleted") == "true",
		Pagination:     pager,
	}

	page, err := h.products.ListProducts(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := productListResponse{
		Products:      make([]productPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, product := range page.Items {
		payload.Products = append(payload.Products, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, err := h.products.GetProduct(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *ProductHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateProductRequest
	if err := decodeJSONBody(r, maxProductBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.products.Update(ctx, services.UpdateProductCommand{
		ProductID: chi.URLParam(r, "productID"),
		Title:     req.Title,
		Status:    req.Status,
		Metadata:  req.Metadata,
		ActorID:   actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *ProductHandlers) replaceSkus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req replaceSkusRequest
	if err := decodeJSONBody(r, maxProductBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.products.ReplaceSkus(ctx, services.ReplaceSkusCommand{
		ProductID: chi.URLParam(r, "productID"),
		Skus:      buildRawSkus(req.Skus),
		Defaults:  buildPriceDefaults(req.Defaults),
		ActorID:   actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *ProductHandlers) adjustStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adjustStockRequest
	if err := decodeJSONBody(r, maxProductBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	stock, err := h.products.AdjustStock(ctx, services.AdjustStockCommand{
		ProductID: chi.URLParam(r, "productID"),
		SkuID:     strings.TrimSpace(req.SkuID),
		Delta:     req.Delta,
		ActorID:   actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, adjustStockResponse{SkuID: strings.TrimSpace(req.SkuID), StockQty: stock})
}

func (h *ProductHandlers) setFeatured(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req setFeaturedRequest
	if err := decodeJSONBody(r, maxProductBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	product, err := h.products.SetFeatured(ctx, chi.URLParam(r, "productID"), req.Featured, actorID(ctx))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productResponse{Product: buildProductPayload(product)})
}

func (h *ProductHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.products.Delete(ctx, services.DeleteProductCommand{
		ProductID: chi.URLParam(r, "productID"),
		Hard:      r.URL.Query().Get("hard") == "true",
		ActorID:   actorID(ctx),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createProductRequest struct {
	Title    string               `json:"title"`
	Status   string               `json:"status"`
	Featured bool                 `json:"featured"`
	Skus     []skuRequest         `json:"skus"`
	Defaults *priceDefaultsInput  `json:"defaults"`
	Metadata map[string]any       `json:"metadata"`
}

type updateProductRequest struct {
	Title    *string        `json:"title"`
	Status   *string        `json:"status"`
	Metadata map[string]any `json:"metadata"`
}

type replaceSkusRequest struct {
	Skus     []skuRequest        `json:"skus"`
	Defaults *priceDefaultsInput `json:"defaults"`
}

type adjustStockRequest struct {
	SkuID string `json:"sku_id"`
	Delta int    `json:"delta"`
}

type adjustStockResponse struct {
	SkuID    string `json:"sku_id"`
	StockQty int    `json:"stock_qty"`
}

type setFeaturedRequest struct {
	Featured bool `json:"featured"`
}

type skuRequest struct {
	SkuCode      string           `json:"sku_code"`
	Attributes   map[string]any   `json:"attributes"`
	PriceRegular int64            `json:"price_regular"`
	PriceSale    int64            `json:"price_sale"`
	PriceMember  int64            `json:"price_member"`
	StockQty     *int             `json:"stock_qty"`
	TierPrices   []tierPriceInput `json:"tier_prices"`
	WeightGrams  *int             `json:"weight_grams"`
	Barcode      string           `json:"barcode"`
	SortOrder    *int             `json:"sort_order"`
}

type tierPriceInput struct {
	MinQty int     `json:"min_qty"`
	MaxQty *int    `json:"max_qty"`
	Price  float64 `json:"price"`
	Note   string  `json:"note"`
}

type priceDefaultsInput struct {
	PriceRegular int64 `json:"price_regular"`
	PriceSale    int64 `json:"price_sale"`
	StockQty     int   `json:"stock_qty"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

type productListResponse struct {
	Products      []productPayload `json:"products"`
	NextPageToken string           `json:"next_page_token,omitempty"`
}

type productPayload struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Status    string         `json:"status"`
	Featured  bool           `json:"featured"`
	Skus      []skuPayload   `json:"skus"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	DeletedAt string         `json:"deleted_at,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

type skuPayload struct {
	ID           string             `json:"id"`
	SkuCode      string             `json:"sku_code"`
	Attributes   map[string]any     `json:"attributes,omitempty"`
	PriceRegular int64              `json:"price_regular"`
	PriceSale    int64              `json:"price_sale"`
	PriceMember  int64              `json:"price_member"`
	StockQty     int                `json:"stock_qty"`
	TierPrices   []tierPricePayload `json:"tier_prices,omitempty"`
	WeightGrams  *int               `json:"weight_grams,omitempty"`
	Barcode      string             `json:"barcode,omitempty"`
	SortOrder    int                `json:"sort_order"`
}

type tierPricePayload struct {
	MinQty int    `json:"min_qty"`
	MaxQty *int   `json:"max_qty,omitempty"`
	Price  int64  `json:"price"`
	Note   string `json:"note,omitempty"`
}

func buildRawSkus(skus []skuRequest) []services.RawSku {
	out := make([]services.RawSku, 0, len(skus))
	for _, sku := range skus {
		raw := services.RawSku{
			SkuCode:      sku.SkuCode,
			Attributes:   sku.Attributes,
			PriceRegular: sku.PriceRegular,
			PriceSale:    sku.PriceSale,
			PriceMember:  sku.PriceMember,
			StockQty:     sku.StockQty,
			WeightGrams:  sku.WeightGrams,
			Barcode:      sku.Barcode,
			SortOrder:    sku.SortOrder,
		}
		for _, tier := range sku.TierPrices {
			raw.TierPrices = append(raw.TierPrices, services.TierPriceInput{
				MinQty: tier.MinQty,
				MaxQty: tier.MaxQty,
				Price:  tier.Price,
				Note:   tier.Note,
			})
		}
		out = append(out, raw)
	}
	return out
}

func buildPriceDefaults(input *priceDefaultsInput) services.PriceDefaults {
	if input == nil {
		return services.PriceDefaults{}
	}
	return services.PriceDefaults{
		PriceRegular: input.PriceRegular,
		PriceSale:    input.PriceSale,
		StockQty:     input.StockQty,
	}
}

func buildProductPayload(product services.Product) productPayload {
	payload := productPayload{
		ID:        product.ID,
		Title:     product.Title,
		Status:    product.Status,
		Featured:  product.Featured,
		Skus:      make([]skuPayload, 0, len(product.Skus)),
		Metadata:  product.Metadata,
		DeletedAt: formatTimePtr(product.DeletedAt),
		CreatedAt: formatTime(product.CreatedAt),
		UpdatedAt: formatTime(product.UpdatedAt),
	}

	for _, sku := range product.Skus {
		entry := skuPayload{
			ID:           sku.ID,
			SkuCode:      sku.SkuCode,
			Attributes:   sku.Attributes,
			PriceRegular: sku.PriceRegular,
			PriceSale:    sku.PriceSale,
			PriceMember:  sku.PriceMember,
			StockQty:     sku.StockQty,
			WeightGrams:  sku.WeightGrams,
			Barcode:      sku.Barcode,
			SortOrder:    sku.SortOrder,
		}
		for _, tier := range sku.TierPrices {
			entry.TierPrices = append(entry.TierPrices, tierPricePayload{
				MinQty: tier.MinQty,
				MaxQty: tier.MaxQty,
				Price:  tier.Price,
				Note:   tier.Note,
			})
		}
		payload.Skus = append(payload.Skus, entry)
	}
	return payload
}
