// Package services – OrderService
//
// This file implements order administration behind the REST API: creating an
// order from an explicit item list, listing, fetching with items, and status
// updates. Every status change (including the initial one) appends an
// OrderStatusLog row in the same transaction as the change.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/observability"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
)

// Actors recorded in the status log when the caller names none.
const (
	ActorSystem = "System"
	ActorAdmin  = "Admin"
)

// OrderItemInput is one line of an order created through the API. UnitPrice
// defaults to the variant's current price.
type OrderItemInput struct {
	VariantID uint
	Quantity  int
	UnitPrice *decimal.Decimal
}

// OrderInput describes an order created through the API.
type OrderInput struct {
	CustomerID      uint
	Items           []OrderItemInput
	PaymentMethod   string
	DeliverySlot    string
	AddressSnapshot json.RawMessage
}

// OrderService provides order administration.
type OrderService struct {
	DB            *gorm.DB
	Now           func() time.Time
	NewReadableID func(time.Time) string
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{DB: db, Now: time.Now, NewReadableID: NewReadableOrderID}
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create writes the order, its items and the initial status log ("System")
// in one transaction. The total is the sum of item totals.
func (s *OrderService) Create(ctx context.Context, in OrderInput) (*domain.Order, error) {
	method := strings.ToUpper(strings.TrimSpace(in.PaymentMethod))
	if method != domain.PaymentCOD && method != domain.PaymentUPI {
		return nil, ErrInvalidPaymentMethod
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 || it.VariantID == 0 {
			return nil, fmt.Errorf("%w: items need a variant_id and a positive quantity", ErrInvalidOrder)
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: negative unit price", ErrInvalidOrder)
		}
	}
	if len(in.AddressSnapshot) > 0 && !json.Valid(in.AddressSnapshot) {
		return nil, fmt.Errorf("%w: address_snapshot must be JSON", ErrInvalidOrder)
	}

	ctx, span := observability.StartSpan(ctx, "OrderService.Create",
		attribute.Int64("customer.id", int64(in.CustomerID)),
		attribute.Int("items", len(in.Items)),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	now := s.now()
	var order *domain.Order
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).First(&domain.Customer{}, in.CustomerID).Error; err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}

		items := make([]domain.OrderItem, 0, len(in.Items))
		total := decimal.Zero
		for _, it := range in.Items {
			v, err := repo.GetVariant(ctx, tx, it.VariantID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return fmt.Errorf("%w: unknown variant %d", ErrInvalidOrder, it.VariantID)
				}
				return err
			}
			unit := v.Price
			if it.UnitPrice != nil {
				unit = it.UnitPrice.Round(2)
			}
			line := domain.LineTotal(unit, it.Quantity)
			total = total.Add(line)
			items = append(items, domain.OrderItem{
				VariantID:   it.VariantID,
				Quantity:    it.Quantity,
				UnitPrice:   unit,
				TotalPrice:  line,
				ProductName: v.Product.BaseName,
				WeightLabel: v.WeightLabel,
			})
		}

		o := &domain.Order{
			ReadableID:      s.readableID(now),
			CustomerID:      in.CustomerID,
			TotalAmount:     total,
			PaymentMethod:   method,
			Status:          domain.InitialOrderStatus(method),
			DeliverySlot:    strings.TrimSpace(in.DeliverySlot),
			DeliveryAddress: datatypes.JSON(in.AddressSnapshot),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := repo.CreateOrder(ctx, tx, o); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = o.ID
		}
		if err := repo.CreateOrderItems(ctx, tx, items); err != nil {
			return err
		}
		if err := repo.AppendStatusLog(ctx, tx, o.ID, nil, o.Status, ActorSystem); err != nil {
			return err
		}
		o.Items = items
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RecordOrderPlaced(method, ChannelAPI)
	return order, nil
}

func (s *OrderService) readableID(at time.Time) string {
	if s.NewReadableID != nil {
		return s.NewReadableID(at)
	}
	return NewReadableOrderID(at)
}

// ListPage returns recent orders first, with the total count.
func (s *OrderService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Order, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	total, err := repo.CountOrders(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Order{}, 0, nil
	}
	items, err := repo.ListRecentOrders(ctx, s.DB, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Get returns the order with its items.
func (s *OrderService) Get(ctx context.Context, id uint) (*domain.Order, error) {
	o, err := repo.GetOrder(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

// Stats returns the order count and latest update time, for cache
// validators.
func (s *OrderService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return repo.OrdersStats(ctx, s.DB)
}

// UpdateStatus moves the order to status and logs the change. changedBy
// defaults to "Admin". It returns the previous status.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus, changedBy string) (domain.OrderStatus, error) {
	status = domain.OrderStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	changedBy = strings.TrimSpace(changedBy)
	if changedBy == "" {
		changedBy = ActorAdmin
	}

	ctx, span := observability.StartSpan(ctx, "OrderService.UpdateStatus",
		attribute.Int64("order.id", int64(id)),
		attribute.String("order.status", string(status)),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var prev domain.OrderStatus
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		old, err := repo.UpdateOrderStatus(ctx, tx, id, status)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		prev = old
		return repo.AppendStatusLog(ctx, tx, id, &old, status, changedBy)
	})
	if err != nil {
		return "", err
	}
	return prev, nil
}
