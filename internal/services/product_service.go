// Package services – ProductService
//
// This file implements catalog management behind the REST API: listing
// active products with their variants, creating one product, and bulk import.
// Writes notify OnChange after commit so the chat's product search can
// rebuild its index.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/observability"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
)

// DefaultImportStock is the stock given to imported variants that do not
// state one.
const DefaultImportStock = 100

// VariantInput describes one pack size of a new product.
type VariantInput struct {
	Weight string
	Price  decimal.Decimal
	Stock  *int
	SKU    *string
}

// ProductInput describes a new product.
type ProductInput struct {
	BaseName    string
	Description string
	ImageURL    string
	CategoryID  *uint
	Variants    []VariantInput
}

// ProductService provides catalog operations.
type ProductService struct {
	DB *gorm.DB
	// OnChange, when set, runs after every committed catalog write.
	OnChange func()
}

// NewProductService constructs a ProductService.
func NewProductService(db *gorm.DB, onChange func()) *ProductService {
	return &ProductService{DB: db, OnChange: onChange}
}

// ListPage returns a page of active products with variants ordered by price,
// and the total number of active products.
func (s *ProductService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Product, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	total, err := repo.CountActiveProducts(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Product{}, 0, nil
	}
	items, err := repo.ListProductsWithVariants(ctx, s.DB, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Create inserts a product and its variants in one transaction. Variants
// without a stock value start at zero.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	ctx, span := observability.StartSpan(ctx, "ProductService.Create")
	p, err := buildProduct(in, 0)
	if err == nil {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return createProduct(ctx, tx, p)
		})
	}
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	s.changed()
	return p, nil
}

// BulkImport inserts all products in one transaction; any invalid product or
// SKU clash aborts the whole import. Names are title-cased and variants
// without a stock value get DefaultImportStock. It returns the number of
// products imported.
func (s *ProductService) BulkImport(ctx context.Context, in []ProductInput) (int, error) {
	ctx, span := observability.StartSpan(ctx, "ProductService.BulkImport",
		attribute.Int("products", len(in)),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if len(in) == 0 {
		err = fmt.Errorf("%w: no products", ErrInvalidProduct)
		return 0, err
	}
	products := make([]*domain.Product, 0, len(in))
	for i, pi := range in {
		pi.BaseName = titleCase(strings.ToLower(collapseSpaces(pi.BaseName)))
		p, berr := buildProduct(pi, DefaultImportStock)
		if berr != nil {
			err = fmt.Errorf("product %d: %w", i+1, berr)
			return 0, err
		}
		products = append(products, p)
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range products {
			if err := createProduct(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.changed()
	return len(products), nil
}

func (s *ProductService) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}

func createProduct(ctx context.Context, tx *gorm.DB, p *domain.Product) error {
	err := repo.CreateProductWithVariants(ctx, tx, p)
	if errors.Is(err, repo.ErrDuplicate) {
		return ErrDuplicateSKU
	}
	return err
}

func buildProduct(in ProductInput, defaultStock int) (*domain.Product, error) {
	name := collapseSpaces(in.BaseName)
	if name == "" {
		return nil, fmt.Errorf("%w: base_name is required", ErrInvalidProduct)
	}
	p := &domain.Product{
		BaseName:    name,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CategoryID:  in.CategoryID,
		IsActive:    true,
		Variants:    make([]domain.ProductVariant, 0, len(in.Variants)),
	}
	for _, v := range in.Variants {
		weight := strings.TrimSpace(v.Weight)
		if weight == "" || v.Price.IsNegative() {
			return nil, fmt.Errorf("%w: variant needs a weight and a non-negative price", ErrInvalidProduct)
		}
		stock := defaultStock
		if v.Stock != nil {
			stock = *v.Stock
		}
		if stock < 0 {
			return nil, fmt.Errorf("%w: negative stock", ErrInvalidProduct)
		}
		var sku *string
		if v.SKU != nil && strings.TrimSpace(*v.SKU) != "" {
			code := strings.TrimSpace(*v.SKU)
			sku = &code
		}
		p.Variants = append(p.Variants, domain.ProductVariant{
			WeightLabel:   weight,
			Price:         v.Price.Round(2),
			StockQuantity: stock,
			SKUCode:       sku,
			IsActive:      true,
		})
	}
	return p, nil
}

// collapseSpaces trims and collapses internal whitespace runs to one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizePage applies defaults for invalid page/pageSize.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}
