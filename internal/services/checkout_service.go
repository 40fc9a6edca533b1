// Package services – CheckoutService
//
// This file implements the cart and checkout mutations invoked by the
// conversation state machine: add-to-cart, default address capture and order
// placement. Every mutation runs in one transaction together with the
// customer's conversation state, so a concurrent event never sees a state
// that disagrees with the cart, address or order rows it describes.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/observability"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
)

// ChannelWhatsApp and ChannelAPI label where an order was placed.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelAPI      = "api"
)

// CartSummary is an itemized view of the active cart priced at current
// variant prices.
type CartSummary struct {
	CartID uint
	Lines  []domain.CartLine
	Total  decimal.Decimal
}

// CheckoutService owns cart, address and order-placement mutations.
type CheckoutService struct {
	DB  *gorm.DB
	Now func() time.Time
	// NewReadableID generates human-facing order ids. Defaults to
	// NewReadableOrderID.
	NewReadableID func(time.Time) string
}

// NewCheckoutService returns a CheckoutService using the wall clock.
func NewCheckoutService(db *gorm.DB) *CheckoutService {
	return &CheckoutService{DB: db, Now: time.Now, NewReadableID: NewReadableOrderID}
}

func (s *CheckoutService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// NewReadableOrderID returns an id like "ORD-240131-7F3A9C".
func NewReadableOrderID(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "ORD-" + at.UTC().Format("060102") + "-" + suffix
}

// AddToCart adds one unit of the variant to the customer's active cart,
// creating the cart when absent. Re-adding a variant increments its quantity.
// It returns the variant and the line's new quantity.
func (s *CheckoutService) AddToCart(ctx context.Context, customerID, variantID uint) (*domain.ProductVariant, int, error) {
	ctx, span := observability.StartSpan(ctx, "CheckoutService.AddToCart",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int64("variant.id", int64(variantID)),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var (
		variant *domain.ProductVariant
		qty     int
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := repo.GetVariant(ctx, tx, variantID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrVariantUnavailable
			}
			return err
		}
		if !v.Available() || !v.Product.IsActive {
			return ErrVariantUnavailable
		}
		cart, err := repo.EnsureActiveCart(ctx, tx, customerID)
		if err != nil {
			return fmt.Errorf("ensure cart: %w", err)
		}
		n, err := repo.IncrementCartItem(ctx, tx, cart.ID, variantID)
		if err != nil {
			return fmt.Errorf("increment item: %w", err)
		}
		if err := repo.SetConversationState(ctx, tx, customerID, domain.StateCartReview, s.now()); err != nil {
			return err
		}
		variant, qty = v, n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return variant, qty, nil
}

// SaveAddress makes text the customer's only default address and moves the
// conversation to address confirmation.
func (s *CheckoutService) SaveAddress(ctx context.Context, customerID uint, text, pincode string) (*domain.Address, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyAddress
	}
	ctx, span := observability.StartSpan(ctx, "CheckoutService.SaveAddress",
		attribute.Int64("customer.id", int64(customerID)),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var addr *domain.Address
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := repo.ReplaceDefaultAddress(ctx, tx, customerID, text, strings.TrimSpace(pincode))
		if err != nil {
			return fmt.Errorf("replace default address: %w", err)
		}
		addr = a
		return repo.SetConversationState(ctx, tx, customerID, domain.StateAddressConfirm, s.now())
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// Summary returns the active cart's lines and total. It returns ErrEmptyCart
// when there is no active cart or it has no items.
func (s *CheckoutService) Summary(ctx context.Context, customerID uint) (*CartSummary, error) {
	return cartSummary(ctx, s.DB, customerID)
}

func cartSummary(ctx context.Context, db *gorm.DB, customerID uint) (*CartSummary, error) {
	cart, err := repo.GetActiveCart(ctx, db, customerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	lines, err := repo.ListCartLines(ctx, db, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	return &CartSummary{CartID: cart.ID, Lines: lines, Total: domain.CartTotal(lines)}, nil
}

// PlaceOrder turns the active cart into an order in one transaction: the cart
// is claimed (ACTIVE → CONVERTED), the order and its items are written at the
// variants' current prices, the initial status is logged and the
// conversation moves to OrderConfirmed. A concurrent second attempt on the
// same cart finds it converted and gets ErrEmptyCart.
func (s *CheckoutService) PlaceOrder(ctx context.Context, customerID uint, method string) (*domain.Order, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method != domain.PaymentCOD && method != domain.PaymentUPI {
		return nil, ErrInvalidPaymentMethod
	}
	ctx, span := observability.StartSpan(ctx, "CheckoutService.PlaceOrder",
		attribute.Int64("customer.id", int64(customerID)),
		attribute.String("payment.method", method),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	now := s.now()
	var order *domain.Order
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sum, err := cartSummary(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if err := repo.ConvertCart(ctx, tx, sum.CartID); err != nil {
			if errors.Is(err, repo.ErrCartNotActive) {
				return ErrEmptyCart
			}
			return err
		}

		snapshot, err := addressSnapshot(ctx, tx, customerID)
		if err != nil {
			return err
		}
		cartID := sum.CartID
		o := &domain.Order{
			ReadableID:      s.readableID(now),
			CustomerID:      customerID,
			CartID:          &cartID,
			TotalAmount:     sum.Total,
			PaymentMethod:   method,
			Status:          domain.InitialOrderStatus(method),
			DeliveryAddress: snapshot,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := repo.CreateOrder(ctx, tx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		items := make([]domain.OrderItem, 0, len(sum.Lines))
		for _, l := range sum.Lines {
			items = append(items, domain.OrderItem{
				OrderID:     o.ID,
				VariantID:   l.VariantID,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				TotalPrice:  l.Subtotal(),
				ProductName: l.ProductName,
				WeightLabel: l.WeightLabel,
			})
		}
		if err := repo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		if err := repo.AppendStatusLog(ctx, tx, o.ID, nil, o.Status, "Customer"); err != nil {
			return fmt.Errorf("append status log: %w", err)
		}
		if err := repo.SetConversationState(ctx, tx, customerID, domain.StateOrderConfirmed, now); err != nil {
			return err
		}
		o.Items = items
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordOrderPlaced(method, ChannelWhatsApp)
	return order, nil
}

func (s *CheckoutService) readableID(at time.Time) string {
	if s.NewReadableID != nil {
		return s.NewReadableID(at)
	}
	return NewReadableOrderID(at)
}

// addressSnapshot freezes the default address into the order. Orders without
// a saved address carry no snapshot.
func addressSnapshot(ctx context.Context, db *gorm.DB, customerID uint) (datatypes.JSON, error) {
	addr, err := repo.GetDefaultAddress(ctx, db, customerID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(map[string]string{"address": addr.Text, "pincode": addr.Pincode})
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
