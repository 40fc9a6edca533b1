package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartStatus is the lifecycle state of a cart.
type CartStatus string

const (
	CartActive    CartStatus = "ACTIVE"
	CartConverted CartStatus = "CONVERTED"
)

// Cart collects items for one customer. At most one ACTIVE cart exists per
// customer (partial unique index); a cart becomes CONVERTED when an order is
// placed from it and is never deleted.
type Cart struct {
	ID         uint       `json:"cart_id"     gorm:"primaryKey"`
	CustomerID uint       `json:"customer_id" gorm:"not null;index"`
	Status     CartStatus `json:"status"      gorm:"type:varchar(16);not null;default:'ACTIVE';check:status IN ('ACTIVE','CONVERTED')"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Cart.
func (Cart) TableName() string { return "carts" }

// CartItem is one variant line in a cart. (cart_id, variant_id) is unique:
// re-adding a variant increments Quantity.
type CartItem struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	CartID    uint      `json:"cart_id"    gorm:"not null;uniqueIndex:ux_cart_items_cart_variant,priority:1"`
	VariantID uint      `json:"variant_id" gorm:"not null;uniqueIndex:ux_cart_items_cart_variant,priority:2"`
	Quantity  int       `json:"quantity"   gorm:"not null;default:1;check:quantity > 0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Cart    Cart           `json:"-" gorm:"foreignKey:CartID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Variant ProductVariant `json:"-" gorm:"foreignKey:VariantID;references:ID"`
}

// TableName returns the database table name for CartItem.
func (CartItem) TableName() string { return "cart_items" }

// CartLine is a read model joining a cart item with its variant and product,
// priced at the variant's current price.
type CartLine struct {
	VariantID   uint
	ProductName string
	WeightLabel string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Subtotal returns UnitPrice × Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return LineTotal(l.UnitPrice, l.Quantity)
}

// CartTotal sums line subtotals. Totals are computed at read time and never
// stored on the cart.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
