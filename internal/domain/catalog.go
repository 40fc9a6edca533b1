package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCategory groups products for browsing. Only active categories with
// at least one active product are offered in the chat.
type ProductCategory struct {
	ID        uint      `json:"category_id" gorm:"primaryKey"`
	Name      string    `json:"name"        gorm:"type:varchar(255);not null"`
	SortOrder int       `json:"sort_order"  gorm:"not null;default:0"`
	IsActive  bool      `json:"is_active"   gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ProductCategory.
func (ProductCategory) TableName() string { return "product_categories" }

// Product is a catalog entry; purchasable units are its variants.
type Product struct {
	ID          uint      `json:"product_id"            gorm:"primaryKey"`
	CategoryID  *uint     `json:"category_id,omitempty" gorm:"index"`
	BaseName    string    `json:"base_name"             gorm:"type:varchar(255);not null"`
	Description string    `json:"description"           gorm:"type:text;not null;default:''"`
	ImageURL    string    `json:"image_url"             gorm:"type:text;not null;default:''"`
	IsActive    bool      `json:"is_active"             gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`

	Variants []ProductVariant `json:"variants" gorm:"foreignKey:ProductID;references:ID"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// ProductVariant is a sellable pack size of a product (e.g. "1 kg").
type ProductVariant struct {
	ID            uint            `json:"variant_id" gorm:"primaryKey"`
	ProductID     uint            `json:"product_id" gorm:"not null;index"`
	WeightLabel   string          `json:"weight"     gorm:"type:varchar(64);not null"`
	Price         decimal.Decimal `json:"price"      gorm:"type:numeric(12,2);not null"`
	StockQuantity int             `json:"stock"      gorm:"not null;default:0"`
	SKUCode       *string         `json:"sku,omitempty" gorm:"type:varchar(64);uniqueIndex:ux_variants_sku"`
	IsActive      bool            `json:"is_active"  gorm:"not null;default:true"`
	CreatedAt     time.Time       `json:"created_at"`

	Product Product `json:"-" gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ProductVariant.
func (ProductVariant) TableName() string { return "product_variants" }

// Available reports whether the variant can be offered for sale.
func (v ProductVariant) Available() bool {
	return v.IsActive && v.StockQuantity > 0
}
