package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
)

// ---------- test helpers ----------

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	// One connection serializes transactions on the shared in-memory DB.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type catalogFixture struct {
	Category domain.ProductCategory
	Product  domain.Product
	Kilo     domain.ProductVariant // 1kg @ 125.00
	Half     domain.ProductVariant // 500g @ 50.00
}

func seedStore(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()
	cat := domain.ProductCategory{Name: "staples", IsActive: true}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	p := domain.Product{CategoryID: &cat.ID, BaseName: "basmati rice", Description: "Aged long grain rice", IsActive: true}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	kilo := domain.ProductVariant{ProductID: p.ID, WeightLabel: "1kg", Price: decimal.RequireFromString("125.00"), StockQuantity: 10, IsActive: true}
	half := domain.ProductVariant{ProductID: p.ID, WeightLabel: "500g", Price: decimal.RequireFromString("50.00"), StockQuantity: 10, IsActive: true}
	for _, v := range []*domain.ProductVariant{&kilo, &half} {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("seed variant: %v", err)
		}
	}
	return catalogFixture{Category: cat, Product: p, Kilo: kilo, Half: half}
}

func seedShopper(t *testing.T, db *gorm.DB, phone string) *domain.Customer {
	t.Helper()
	c, err := repo.UpsertCustomer(context.Background(), db, phone, "Asha", time.Now().UTC())
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

// countConversationLogs returns the number of logged messages from sender.
func countConversationLogs(ctx context.Context, db *gorm.DB, sender string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ConversationLog{}).
		Where("sender_phone = ?", sender).
		Count(&n).Error
	return n, err
}

// countDefaultAddresses returns how many addresses of the customer are
// flagged default.
func countDefaultAddresses(ctx context.Context, db *gorm.DB, customerID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Address{}).
		Where("customer_id = ? AND is_default = ?", customerID, true).
		Count(&n).Error
	return n, err
}

func fixedReadableID(id string) func(time.Time) string {
	return func(time.Time) string { return id }
}

func mustState(t *testing.T, db *gorm.DB, phone string, want domain.ConversationState) {
	t.Helper()
	c, err := repo.GetCustomerByPhone(context.Background(), db, phone)
	if err != nil {
		t.Fatalf("GetCustomerByPhone: %v", err)
	}
	if c.ConversationState != want {
		t.Fatalf("conversation state = %s, want %s", c.ConversationState, want)
	}
}

// ---------- AddToCart ----------

func TestCheckout_AddToCart_SameVariantIncrements(t *testing.T) {
	db := newServiceDB(t)
	fx := seedStore(t, db)
	cust := seedShopper(t, db, "919999000001")
	s := NewCheckoutService(db)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		v, qty, err := s.AddToCart(ctx, cust.ID, fx.Kilo.ID)
		if err != nil {
			t.Fatalf("AddToCart #%d: %v", i, err)
		}
		if qty != i || v.Product.BaseName != "basmati rice" {
			t.Fatalf("AddToCart #%d: qty=%d product=%q", i, qty, v.Product.BaseName)
		}
	}

	var rows []domain.CartItem
	if err := db.Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Quantity != 5 {
		t.Fatalf("expected one row with qty 5, got %+v", rows)
	}
	var carts int64
	db.Model(&domain.Cart{}).Where("customer_id = ?", cust.ID).Count(&carts)
	if carts != 1 {
		t.Fatalf("expected exactly one cart, got %d", carts)
	}
	mustState(t, db, cust.Phone, domain.StateCartReview)
}

func TestCheckout_AddToCart_Unavailable(t *testing.T) {
	db := newServiceDB(t)
	fx := seedStore(t, db)
	cust := seedShopper(t, db, "919999000002")
	s := NewCheckoutService(db)

	db.Model(&fx.Half).Update("stock_quantity", 0)

	if _, _, err := s.AddToCart(context.Background(), cust.ID, fx.Half.ID); !errors.Is(err, ErrVariantUnavailable) {
		t.Fatalf("out of stock: expected ErrVariantUnavailable, got %v", err)
	}
	if _, _, err := s.AddToCart(context.Background(), cust.ID, 424242); !errors.Is(err, ErrVariantUnavailable) {
		t.Fatalf("unknown: expected ErrVariantUnavailable, got %v", err)
	}
	var carts int64
	db.Model(&domain.Cart{}).Count(&carts)
	if carts != 0 {
		t.Fatalf("no cart should be created for unavailable variants, got %d", carts)
	}
}

// ---------- SaveAddress ----------

func TestCheckout_SaveAddress_SingleDefault(t *testing.T) {
	db := newServiceDB(t)
	cust := seedShopper(t, db, "919999000003")
	s := NewCheckoutService(db)
	ctx := context.Background()

	for i, text := range []string{"12 MG Road", "  Flat 4, Park Street ", "7 Lake View"} {
		a, err := s.SaveAddress(ctx, cust.ID, text, "56000"+fmt.Sprint(i))
		if err != nil {
			t.Fatalf("SaveAddress(%q): %v", text, err)
		}
		if !a.IsDefault || a.Text != strings.TrimSpace(text) {
			t.Fatalf("unexpected address: %+v", a)
		}
	}

	n, err := countDefaultAddresses(ctx, db, cust.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected exactly one default address, got %d (%v)", n, err)
	}
	def, _ := repo.GetDefaultAddress(ctx, db, cust.ID)
	if def.Text != "7 Lake View" || def.Pincode != "560002" {
		t.Fatalf("latest address should be default, got %+v", def)
	}
	mustState(t, db, cust.Phone, domain.StateAddressConfirm)

	if _, err := s.SaveAddress(ctx, cust.ID, "   ", ""); !errors.Is(err, ErrEmptyAddress) {
		t.Fatalf("expected ErrEmptyAddress, got %v", err)
	}
}

// ---------- Summary ----------

func TestCheckout_Summary(t *testing.T) {
	db := newServiceDB(t)
	fx := seedStore(t, db)
	cust := seedShopper(t, db, "919999000004")
	s := NewCheckoutService(db)
	ctx := context.Background()

	if _, err := s.Summary(ctx, cust.ID); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("no cart: expected ErrEmptyCart, got %v", err)
	}
	if _, err := repo.EnsureActiveCart(ctx, db, cust.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Summary(ctx, cust.ID); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("empty cart: expected ErrEmptyCart, got %v", err)
	}

	_, _, _ = s.AddToCart(ctx, cust.ID, fx.Kilo.ID)
	_, _, _ = s.AddToCart(ctx, cust.ID, fx.Half.ID)
	_, _, _ = s.AddToCart(ctx, cust.ID, fx.Half.ID)

	sum, err := s.Summary(ctx, cust.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(sum.Lines) != 2 || !sum.Total.Equal(decimal.RequireFromString("225")) {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

// ---------- PlaceOrder ----------

func TestCheckout_PlaceOrder_AtomicConversion(t *testing.T) {
	db := newServiceDB(t)
	fx := seedStore(t, db)
	cust := seedShopper(t, db, "919999000005")
	s := NewCheckoutService(db)
	s.NewReadableID = fixedReadableID("ORD-TEST-000001")
	ctx := context.Background()

	_, _, _ = s.AddToCart(ctx, cust.ID, fx.Kilo.ID)
	_, _, _ = s.AddToCart(ctx, cust.ID, fx.Kilo.ID)
	if _, err := s.SaveAddress(ctx, cust.ID, "12 MG Road", "560001"); err != nil {
		t.Fatal(err)
	}
	cart, _ := repo.GetActiveCart(ctx, db, cust.ID)

	o, err := s.PlaceOrder(ctx, cust.ID, "cod")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if o.ReadableID != "ORD-TEST-000001" || o.Status != domain.OrderConfirmed || o.PaymentMethod != domain.PaymentCOD {
		t.Fatalf("unexpected order: %+v", o)
	}
	if !o.TotalAmount.Equal(decimal.RequireFromString("250")) {
		t.Fatalf("total = %s, want 250", o.TotalAmount)
	}

	stored, err := repo.GetOrder(ctx, db, o.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	itemsTotal := decimal.Zero
	for _, it := range stored.Items {
		itemsTotal = itemsTotal.Add(it.TotalPrice)
	}
	if len(stored.Items) != 1 || !itemsTotal.Equal(stored.TotalAmount) {
		t.Fatalf("items do not add up: %+v", stored.Items)
	}
	var snap map[string]string
	if err := json.Unmarshal(stored.DeliveryAddress, &snap); err != nil || snap["address"] != "12 MG Road" {
		t.Fatalf("address snapshot = %s (%v)", stored.DeliveryAddress, err)
	}

	var after domain.Cart
	db.First(&after, cart.ID)
	if after.Status != domain.CartConverted {
		t.Fatalf("cart status = %s, want CONVERTED", after.Status)
	}
	logs, _ := repo.ListStatusLogs(ctx, db, o.ID)
	if len(logs) != 1 || logs[0].OldStatus != nil || logs[0].NewStatus != domain.OrderConfirmed {
		t.Fatalf("unexpected status logs: %+v", logs)
	}
	mustState(t, db, cust.Phone, domain.StateOrderConfirmed)

	// A repeat on the stale cart must not create a second order.
	if _, err := s.PlaceOrder(ctx, cust.ID, "COD"); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("second PlaceOrder: expected ErrEmptyCart, got %v", err)
	}
	var orders int64
	db.Model(&domain.Order{}).Count(&orders)
	if orders != 1 {
		t.Fatalf("expected one order, got %d", orders)
	}

	// A later add-to-cart opens a fresh ACTIVE cart.
	if _, _, err := s.AddToCart(ctx, cust.ID, fx.Half.ID); err != nil {
		t.Fatal(err)
	}
	fresh, err := repo.GetActiveCart(ctx, db, cust.ID)
	if err != nil || fresh.ID == cart.ID {
		t.Fatalf("expected a new active cart, got %+v (%v)", fresh, err)
	}
}

func TestCheckout_PlaceOrder_UPIStartsPending(t *testing.T) {
	db := newServiceDB(t)
	fx := seedStore(t, db)
	cust := seedShopper(t, db, "919999000006")
	s := NewCheckoutService(db)
	ctx := context.Background()

	_, _, _ = s.AddToCart(ctx, cust.ID, fx.Half.ID)
	o, err := s.PlaceOrder(ctx, cust.ID, domain.PaymentUPI)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if o.Status != domain.OrderPendingPayment || !strings.HasPrefix(o.ReadableID, "ORD-") {
		t.Fatalf("unexpected order: %+v", o)
	}
	if len(o.DeliveryAddress) != 0 {
		t.Fatalf("no default address: snapshot should be empty, got %s", o.DeliveryAddress)
	}
}

func TestCheckout_PlaceOrder_Preconditions(t *testing.T) {
	db := newServiceDB(t)
	cust := seedShopper(t, db, "919999000007")
	s := NewCheckoutService(db)

	if _, err := s.PlaceOrder(context.Background(), cust.ID, "CARD"); !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Fatalf("expected ErrInvalidPaymentMethod, got %v", err)
	}
	if _, err := s.PlaceOrder(context.Background(), cust.ID, "COD"); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	var orders int64
	db.Model(&domain.Order{}).Count(&orders)
	if orders != 0 {
		t.Fatalf("no order expected, got %d", orders)
	}
}

func TestCheckout_PlaceOrder_RollsBackOnFailure(t *testing.T) {
	db := newServiceDB(t)
	fx := seedStore(t, db)
	cust := seedShopper(t, db, "919999000008")
	other := seedShopper(t, db, "919999000009")
	s := NewCheckoutService(db)
	s.NewReadableID = fixedReadableID("ORD-CLASH")
	ctx := context.Background()

	// Occupy the readable id so the order insert fails mid-transaction.
	taken := &domain.Order{ReadableID: "ORD-CLASH", CustomerID: other.ID, TotalAmount: decimal.NewFromInt(1), PaymentMethod: "COD", Status: domain.OrderConfirmed}
	if err := repo.CreateOrder(ctx, db, taken); err != nil {
		t.Fatal(err)
	}
	_, _, _ = s.AddToCart(ctx, cust.ID, fx.Kilo.ID)

	if _, err := s.PlaceOrder(ctx, cust.ID, "COD"); err == nil {
		t.Fatalf("expected PlaceOrder to fail")
	}

	cart, err := repo.GetActiveCart(ctx, db, cust.ID)
	if err != nil {
		t.Fatalf("cart must still be ACTIVE after rollback: %v", err)
	}
	lines, _ := repo.ListCartLines(ctx, db, cart.ID)
	if len(lines) != 1 {
		t.Fatalf("cart items must survive rollback, got %d", len(lines))
	}
	var orders, items, logs int64
	db.Model(&domain.Order{}).Where("customer_id = ?", cust.ID).Count(&orders)
	db.Model(&domain.OrderItem{}).Count(&items)
	db.Model(&domain.OrderStatusLog{}).Count(&logs)
	if orders != 0 || items != 0 || logs != 0 {
		t.Fatalf("partial order left behind: orders=%d items=%d logs=%d", orders, items, logs)
	}
	mustState(t, db, cust.Phone, domain.StateCartReview)
}

func TestNewReadableOrderID_Format(t *testing.T) {
	at := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)
	id := NewReadableOrderID(at)
	if !strings.HasPrefix(id, "ORD-240131-") || len(id) != len("ORD-240131-")+6 {
		t.Fatalf("unexpected readable id %q", id)
	}
	if id == NewReadableOrderID(at) {
		t.Fatalf("readable ids should differ between calls")
	}
	if strings.ToUpper(id) != id {
		t.Fatalf("readable id should be upper case: %q", id)
	}
}
