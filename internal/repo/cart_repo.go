// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for carts and
// cart items.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
)

// ErrCartNotActive is returned by ConvertCart when the cart was already
// converted (or never existed), i.e. another request claimed it first.
var ErrCartNotActive = errors.New("cart is not active")

// EnsureActiveCart returns the customer's ACTIVE cart, creating it when
// absent. Creation relies on the ux_carts_one_active partial index, so two
// concurrent callers converge on the same row.
func EnsureActiveCart(ctx context.Context, db *gorm.DB, customerID uint) (*domain.Cart, error) {
	c := &domain.Cart{CustomerID: customerID, Status: domain.CartActive}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(c).Error; err != nil {
		return nil, err
	}
	return GetActiveCart(ctx, db, customerID)
}

// GetActiveCart returns the customer's ACTIVE cart or ErrNotFound.
func GetActiveCart(ctx context.Context, db *gorm.DB, customerID uint) (*domain.Cart, error) {
	var c domain.Cart
	err := db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, domain.CartActive).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// IncrementCartItem inserts (cart, variant) with quantity 1 or bumps the
// existing row by one, in a single upsert statement. It returns the new
// quantity.
func IncrementCartItem(ctx context.Context, db *gorm.DB, cartID, variantID uint) (int, error) {
	now := time.Now().UTC()
	item := &domain.CartItem{
		CartID:    cartID,
		VariantID: variantID,
		Quantity:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "variant_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + 1"),
				"updated_at": now,
			}),
		}).
		Create(item).Error
	if err != nil {
		return 0, err
	}

	var qty int
	err = db.WithContext(ctx).
		Model(&domain.CartItem{}).
		Select("quantity").
		Where("cart_id = ? AND variant_id = ?", cartID, variantID).
		Scan(&qty).Error
	return qty, err
}

// ListCartLines returns the cart's items joined with product and variant
// names at current variant prices, in insertion order.
func ListCartLines(ctx context.Context, db *gorm.DB, cartID uint) ([]domain.CartLine, error) {
	var out []domain.CartLine
	err := db.WithContext(ctx).
		Table("cart_items AS ci").
		Select(`ci.variant_id AS variant_id,
			p.base_name AS product_name,
			v.weight_label AS weight_label,
			v.price AS unit_price,
			ci.quantity AS quantity`).
		Joins("JOIN product_variants AS v ON v.id = ci.variant_id").
		Joins("JOIN products AS p ON p.id = v.product_id").
		Where("ci.cart_id = ?", cartID).
		Order("ci.id ASC").
		Scan(&out).Error
	return out, err
}

// ConvertCart flips an ACTIVE cart to CONVERTED. Exactly one caller can win:
// the update is conditional on the current status and ErrCartNotActive is
// returned when no row changed.
func ConvertCart(ctx context.Context, db *gorm.DB, cartID uint) error {
	res := db.WithContext(ctx).
		Model(&domain.Cart{}).
		Where("id = ? AND status = ?", cartID, domain.CartActive).
		Updates(map[string]any{"status": domain.CartConverted, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrCartNotActive
	}
	return nil
}
