package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderStatus is the fulfilment status of an order.
type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderConfirmed      OrderStatus = "CONFIRMED"
	OrderPacked         OrderStatus = "PACKED"
	OrderOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderDelivered      OrderStatus = "DELIVERED"
	OrderCancelled      OrderStatus = "CANCELLED"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPendingPayment, OrderConfirmed, OrderPacked,
		OrderOutForDelivery, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Payment methods offered in the chat. Payment is recorded as the chosen
// method only.
const (
	PaymentUPI = "UPI"
	PaymentCOD = "COD"
)

// InitialOrderStatus returns the status an order starts in for a payment
// method: cash on delivery is confirmed immediately, everything else waits
// for payment.
func InitialOrderStatus(method string) OrderStatus {
	if method == PaymentCOD {
		return OrderConfirmed
	}
	return OrderPendingPayment
}

// Order is created from a snapshot of a cart (or from an explicit item list via
// the REST API). TotalAmount is the sum of item totals at placement time.
type Order struct {
	ID              uint            `json:"order_id"          gorm:"primaryKey"`
	ReadableID      string          `json:"readable_order_id" gorm:"type:varchar(32);not null;uniqueIndex:ux_orders_readable"`
	CustomerID      uint            `json:"customer_id"       gorm:"not null;index"`
	CartID          *uint           `json:"cart_id,omitempty" gorm:"index"`
	TotalAmount     decimal.Decimal `json:"total_amount"      gorm:"type:numeric(12,2);not null"`
	PaymentMethod   string          `json:"payment_method"    gorm:"type:varchar(16);not null"`
	Status          OrderStatus     `json:"status"            gorm:"type:varchar(32);not null;index"`
	DeliverySlot    string          `json:"delivery_slot"     gorm:"type:varchar(64);not null;default:''"`
	DeliveryAddress datatypes.JSON  `json:"delivery_address_snapshot" swaggertype:"object"`
	CreatedAt       time.Time       `json:"created_at"        gorm:"index"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Items    []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;references:ID"`
	Customer Customer    `json:"-"               gorm:"foreignKey:CustomerID;references:ID"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OrderItem is a priced line copied into an order.
type OrderItem struct {
	ID         uint            `json:"id"          gorm:"primaryKey"`
	OrderID    uint            `json:"order_id"    gorm:"not null;index"`
	VariantID  uint            `json:"variant_id"  gorm:"not null;index"`
	Quantity   int             `json:"quantity"    gorm:"not null;check:quantity > 0"`
	UnitPrice  decimal.Decimal `json:"unit_price"  gorm:"type:numeric(12,2);not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:numeric(12,2);not null"`

	// Display fields filled by detail queries; not persisted.
	ProductName string `json:"base_name,omitempty"    gorm:"->;-:migration"`
	WeightLabel string `json:"weight_label,omitempty" gorm:"->;-:migration"`

	Order Order `json:"-" gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for OrderItem.
func (OrderItem) TableName() string { return "order_items" }

// OrderStatusLog is an append-only audit row for every status change of an
// order. OldStatus is nil for the initial status.
type OrderStatusLog struct {
	ID        uint         `json:"id"         gorm:"primaryKey"`
	OrderID   uint         `json:"order_id"   gorm:"not null;index"`
	OldStatus *OrderStatus `json:"old_status" gorm:"type:varchar(32)"`
	NewStatus OrderStatus  `json:"new_status" gorm:"type:varchar(32);not null"`
	ChangedBy string       `json:"changed_by" gorm:"type:varchar(64);not null"`
	CreatedAt time.Time    `json:"created_at"`

	Order Order `json:"-" gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for OrderStatusLog.
func (OrderStatusLog) TableName() string { return "order_status_logs" }
