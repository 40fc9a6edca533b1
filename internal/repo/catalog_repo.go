// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-mostly catalog queries plus the
// product creation used by the admin API.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
)

// ListActiveCategories returns active categories that hold at least one
// active product, ordered by sort order then name.
func ListActiveCategories(ctx context.Context, db *gorm.DB, limit int) ([]domain.ProductCategory, error) {
	var out []domain.ProductCategory
	q := db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("EXISTS (SELECT 1 FROM products p WHERE p.category_id = product_categories.id AND p.is_active = ?)", true).
		Order("sort_order ASC, name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetCategory fetches a category by ID or returns ErrNotFound.
func GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.ProductCategory, error) {
	var c domain.ProductCategory
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActiveProductsByCategory returns active products of a category,
// ordered by name.
func ListActiveProductsByCategory(ctx context.Context, db *gorm.DB, categoryID uint, limit int) ([]domain.Product, error) {
	var out []domain.Product
	q := db.WithContext(ctx).
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("base_name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListAllActiveProducts returns every active product (used to build the
// search index).
func ListAllActiveProducts(ctx context.Context, db *gorm.DB) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// GetProduct fetches a product by ID or returns ErrNotFound.
func GetProduct(ctx context.Context, db *gorm.DB, id uint) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActiveProductsByIDs returns the active products among ids, keyed by ID.
func ListActiveProductsByIDs(ctx context.Context, db *gorm.DB, ids []uint) (map[uint]domain.Product, error) {
	out := make(map[uint]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Product
	if err := db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// ListAvailableVariants returns active, in-stock variants of a product
// ordered by price.
func ListAvailableVariants(ctx context.Context, db *gorm.DB, productID uint, limit int) ([]domain.ProductVariant, error) {
	var out []domain.ProductVariant
	q := db.WithContext(ctx).
		Where("product_id = ? AND is_active = ? AND stock_quantity > 0", productID, true).
		Order("price ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetVariant fetches a variant (with its product preloaded) or returns
// ErrNotFound.
func GetVariant(ctx context.Context, db *gorm.DB, id uint) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	if err := db.WithContext(ctx).Preload("Product").First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// ListProductsWithVariants returns active products with their variants
// ordered by price, paginated.
func ListProductsWithVariants(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Product, error) {
	var out []domain.Product
	q := db.WithContext(ctx).
		Where("is_active = ?", true).
		Preload("Variants", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("price ASC, id ASC")
		}).
		Order("base_name ASC, id ASC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountActiveProducts returns the number of active products.
func CountActiveProducts(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Product{}).Where("is_active = ?", true).Count(&n).Error
	return n, err
}

// CreateProductWithVariants inserts the product and its variants. Callers
// wrap it in a transaction when several products must land together.
func CreateProductWithVariants(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	err := db.WithContext(ctx).Create(p).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// CreateCategory inserts a category.
func CreateCategory(ctx context.Context, db *gorm.DB, c *domain.ProductCategory) error {
	return db.WithContext(ctx).Create(c).Error
}
