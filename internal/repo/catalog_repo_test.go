package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
)

func TestListActiveCategories_SkipsEmptyAndInactive(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	seeded := seedCatalog(t, db)

	empty := domain.ProductCategory{Name: "Empty", SortOrder: 0, IsActive: true}
	if err := db.Create(&empty).Error; err != nil {
		t.Fatal(err)
	}
	hidden := domain.ProductCategory{Name: "Hidden", SortOrder: 0, IsActive: true}
	if err := db.Create(&hidden).Error; err != nil {
		t.Fatal(err)
	}
	db.Model(&hidden).Update("is_active", false)
	if err := db.Create(&domain.Product{CategoryID: &hidden.ID, BaseName: "Ghost", IsActive: true}).Error; err != nil {
		t.Fatal(err)
	}

	cats, err := ListActiveCategories(ctx, db, 10)
	if err != nil {
		t.Fatalf("ListActiveCategories: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != seeded.Category.ID {
		t.Fatalf("expected only seeded category, got %+v", cats)
	}
}

func TestListAvailableVariants_OrderedByPriceAndInStock(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	seeded := seedCatalog(t, db)

	out := domain.ProductVariant{ProductID: seeded.Product.ID, WeightLabel: "5kg", Price: decimal.NewFromInt(500), StockQuantity: 1, IsActive: true}
	if err := db.Create(&out).Error; err != nil {
		t.Fatal(err)
	}
	db.Model(&out).Update("stock_quantity", 0)

	vs, err := ListAvailableVariants(ctx, db, seeded.Product.ID, 10)
	if err != nil {
		t.Fatalf("ListAvailableVariants: %v", err)
	}
	if len(vs) != 2 {
		t.Fatalf("expected 2 in-stock variants, got %d", len(vs))
	}
	if vs[0].WeightLabel != "500g" || vs[1].WeightLabel != "1kg" {
		t.Fatalf("expected price ordering 500g,1kg got %s,%s", vs[0].WeightLabel, vs[1].WeightLabel)
	}
}

func TestGetVariant_PreloadsProduct(t *testing.T) {
	db := newStoreDB(t)
	seeded := seedCatalog(t, db)

	v, err := GetVariant(context.Background(), db, seeded.Variants[0].ID)
	if err != nil {
		t.Fatalf("GetVariant: %v", err)
	}
	if v.Product.BaseName != "Basmati Rice" {
		t.Fatalf("expected product preloaded, got %+v", v.Product)
	}
	if _, err := GetVariant(context.Background(), db, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProductsWithVariants_AndCreate(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	seedCatalog(t, db)

	sku := "DAL-1"
	p := &domain.Product{
		BaseName: "Toor Dal",
		IsActive: true,
		Variants: []domain.ProductVariant{
			{WeightLabel: "1kg", Price: decimal.NewFromInt(160), StockQuantity: 100, IsActive: true, SKUCode: &sku},
		},
	}
	if err := CreateProductWithVariants(ctx, db, p); err != nil {
		t.Fatalf("CreateProductWithVariants: %v", err)
	}

	dup := &domain.Product{
		BaseName: "Toor Dal (copy)",
		IsActive: true,
		Variants: []domain.ProductVariant{
			{WeightLabel: "1kg", Price: decimal.NewFromInt(160), StockQuantity: 1, IsActive: true, SKUCode: &sku},
		},
	}
	if err := CreateProductWithVariants(ctx, db, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated SKU, got %v", err)
	}

	all, err := ListProductsWithVariants(ctx, db, 0, 10)
	if err != nil {
		t.Fatalf("ListProductsWithVariants: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 products, got %d", len(all))
	}
	rice := all[0]
	if rice.BaseName != "Basmati Rice" || len(rice.Variants) != 2 || rice.Variants[0].WeightLabel != "500g" {
		t.Fatalf("unexpected first product: %+v", rice)
	}
	if n, _ := CountActiveProducts(ctx, db); n != 2 {
		t.Fatalf("expected 2 active products, got %d", n)
	}
}

func TestListActiveProductsByIDs_SkipsInactiveAndUnknown(t *testing.T) {
	db := newStoreDB(t)
	ctx := context.Background()
	seeded := seedCatalog(t, db)

	retired := domain.Product{BaseName: "Retired", IsActive: true}
	if err := db.Create(&retired).Error; err != nil {
		t.Fatal(err)
	}
	db.Model(&retired).Update("is_active", false)

	got, err := ListActiveProductsByIDs(ctx, db, []uint{seeded.Product.ID, retired.ID, 9999})
	if err != nil {
		t.Fatalf("ListActiveProductsByIDs: %v", err)
	}
	if len(got) != 1 || got[seeded.Product.ID].BaseName != "Basmati Rice" {
		t.Fatalf("unexpected products: %+v", got)
	}
	empty, err := ListActiveProductsByIDs(ctx, db, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty map, got %v %v", empty, err)
	}
}
