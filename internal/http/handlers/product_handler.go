// Product HTTP handlers.
//
// This file exposes REST endpoints for the catalog:
//   - GET  /products       (list active products with variants, paginated)
//   - POST /products       (create one product with its variants)
//   - POST /products/bulk  (import a JSON array of products atomically)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/services"
)

//
// DTOs
//

// VariantRequest is one pack size of a product payload.
type VariantRequest struct {
	Weight string          `json:"weight" example:"1kg"`
	Price  decimal.Decimal `json:"price" swaggertype:"number" example:"85.50"`
	// Stock defaults to 0 on create and 100 on bulk import.
	Stock *int    `json:"stock,omitempty" example:"40"`
	SKU   *string `json:"sku,omitempty" example:"TOOR-1KG"`
}

// ProductRequest is the JSON payload for creating a product.
type ProductRequest struct {
	BaseName    string           `json:"base_name" example:"Toor Dal"`
	Description string           `json:"description" example:"Unpolished split pigeon peas"`
	ImageURL    string           `json:"image_url" example:"https://cdn.example.com/toor.jpg"`
	CategoryID  *uint            `json:"category_id,omitempty" example:"2"`
	Variants    []VariantRequest `json:"variants"`
}

func (r ProductRequest) input() services.ProductInput {
	in := services.ProductInput{
		BaseName:    r.BaseName,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		CategoryID:  r.CategoryID,
		Variants:    make([]services.VariantInput, 0, len(r.Variants)),
	}
	for _, v := range r.Variants {
		in.Variants = append(in.Variants, services.VariantInput{
			Weight: v.Weight,
			Price:  v.Price,
			Stock:  v.Stock,
			SKU:    v.SKU,
		})
	}
	return in
}

// ListProductsResponse wraps a page of products and pagination information.
type ListProductsResponse struct {
	Products   []domain.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// CreateProductResponse is returned after a product is created.
type CreateProductResponse struct {
	Message   string          `json:"message" example:"Product created"`
	ProductID uint            `json:"product_id" example:"12"`
	Product   *domain.Product `json:"product"`
}

// BulkImportResponse reports how many products were imported.
type BulkImportResponse struct {
	Message  string `json:"message" example:"Successfully imported 3 products"`
	Imported int    `json:"imported" example:"3"`
}

//
// Handlers
//

// ListProducts godoc
// @ID          listProducts
// @Summary     List products (paginated)
// @Description Returns active products ordered by name, each with its variants ordered by price.
// @Tags        Products
// @Produce     json
//
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListProductsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.productSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed, "failed to fetch products")
		return
	}
	ok(c, http.StatusOK, ListProductsResponse{
		Products:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// CreateProduct godoc
// @ID          createProduct
// @Summary     Create a product
// @Description Creates a product and its variants in one transaction. Variants without stock start at 0.
// @Tags        Products
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ProductRequest  true  "Product payload"
//
// @Success     201  {object}  handlers.CreateProductResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "SKU already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products [post]
func (h *Handlers) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p, err := h.productSvc.Create(c.Request.Context(), req.input())
	if err != nil {
		failService(c, err, ErrCodeCreateFailed, "failed to create product")
		return
	}
	ok(c, http.StatusCreated, CreateProductResponse{
		Message:   "Product created",
		ProductID: p.ID,
		Product:   p,
	})
}

// BulkImportProducts godoc
// @ID          bulkImportProducts
// @Summary     Bulk import products
// @Description Imports a JSON array of products in one transaction; any invalid entry aborts the import.
// @Description Names are title-cased and variants without stock get 100 units.
// @Tags        Products
// @Accept      json
// @Produce     json
//
// @Param       body  body  []handlers.ProductRequest  true  "Products"
//
// @Success     200  {object}  handlers.BulkImportResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "SKU already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products/bulk [post]
func (h *Handlers) BulkImportProducts(c *gin.Context) {
	var req []ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a JSON array of products")
		return
	}
	in := make([]services.ProductInput, 0, len(req))
	for _, p := range req {
		in = append(in, p.input())
	}
	n, err := h.productSvc.BulkImport(c.Request.Context(), in)
	if err != nil {
		failService(c, err, ErrCodeImportFailed, "bulk upload failed")
		return
	}
	ok(c, http.StatusOK, BulkImportResponse{
		Message:  fmt.Sprintf("Successfully imported %d products", n),
		Imported: n,
	})
}
