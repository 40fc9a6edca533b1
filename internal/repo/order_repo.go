// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for orders, their
// items and the append-only status log.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
)

// CreateOrder inserts the order header. Items are written separately by
// CreateOrderItems so callers control both within one transaction.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	err := db.WithContext(ctx).Omit("Items", "Customer").Create(o).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// CreateOrderItems inserts the given items in one batch.
func CreateOrderItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Omit("Order").Create(&items).Error
}

// AppendStatusLog records a status transition. Rows are never updated or
// deleted.
func AppendStatusLog(ctx context.Context, db *gorm.DB, orderID uint, oldStatus *domain.OrderStatus, newStatus domain.OrderStatus, changedBy string) error {
	entry := &domain.OrderStatusLog{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: changedBy,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Omit("Order").Create(entry).Error
}

// ListStatusLogs returns an order's status history, oldest first.
func ListStatusLogs(ctx context.Context, db *gorm.DB, orderID uint) ([]domain.OrderStatusLog, error) {
	var out []domain.OrderStatusLog
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// withItemNames preloads order items joined with display names.
func withItemNames(tx *gorm.DB) *gorm.DB {
	return tx.
		Select(`order_items.*, p.base_name AS product_name, v.weight_label AS weight_label`).
		Joins("LEFT JOIN product_variants AS v ON v.id = order_items.variant_id").
		Joins("LEFT JOIN products AS p ON p.id = v.product_id").
		Order("order_items.id ASC")
}

// GetOrder fetches an order with its items or returns ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, id uint) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Preload("Items", withItemNames).
		First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrderByReadableID fetches an order by its human-facing id.
func GetOrderByReadableID(ctx context.Context, db *gorm.DB, readableID string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).
		Preload("Items", withItemNames).
		Where("readable_id = ?", readableID).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListRecentOrders returns orders newest first, paginated.
func ListRecentOrders(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Order, error) {
	var out []domain.Order
	q := db.WithContext(ctx).Order("created_at DESC, id DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountOrders returns the total number of orders.
func CountOrders(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Order{}).Count(&n).Error
	return n, err
}

// ListCustomerOrders returns a customer's most recent orders.
func ListCustomerOrders(ctx context.Context, db *gorm.DB, customerID uint, limit int) ([]domain.Order, error) {
	var out []domain.Order
	q := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// UpdateOrderStatus sets the order's status and returns the previous one.
// It returns ErrNotFound when the order does not exist. Callers append the
// status log in the same transaction.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, id uint, status domain.OrderStatus) (domain.OrderStatus, error) {
	var cur domain.Order
	if err := db.WithContext(ctx).Select("id", "status").First(&cur, id).Error; err != nil {
		return "", err
	}
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, cur.Status).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return cur.Status, nil
}
