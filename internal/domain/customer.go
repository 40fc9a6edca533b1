// Package domain defines the persistence models of the storefront: customers
// and their addresses, the catalog, carts, orders, delivery partners and the
// conversation log. These types are mapped with GORM and shared by the
// repository, service and HTTP layers.
package domain

import "time"

// Customer is a shopper identified by the phone number the messaging provider
// assigns to them. A customer is created on the first inbound message and
// LastActiveAt is refreshed on every accepted message.
//
// ConversationState records where the customer is in the chat flow. It is
// written in the same transaction as the cart/address/order mutation that
// accompanies the transition, so concurrent events never observe a state that
// disagrees with the rows it describes.
type Customer struct {
	ID                uint              `json:"id"                 gorm:"primaryKey"`
	Phone             string            `json:"phone"              gorm:"type:varchar(32);not null;uniqueIndex:ux_customers_phone"`
	Name              string            `json:"name"               gorm:"type:varchar(255);not null;default:''"`
	LastActiveAt      time.Time         `json:"last_active_at"     gorm:"index"`
	ConversationState ConversationState `json:"conversation_state" gorm:"type:varchar(32);not null;default:'WELCOME'"`
	StateUpdatedAt    time.Time         `json:"state_updated_at"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// Address is a delivery address owned by one customer. At most one address per
// customer carries IsDefault; the repository clears the previous default in the
// same transaction that inserts a new one, and a partial unique index backs it.
type Address struct {
	ID         uint      `json:"id"          gorm:"primaryKey"`
	CustomerID uint      `json:"customer_id" gorm:"not null;index"`
	Text       string    `json:"address"     gorm:"type:text;not null"`
	Pincode    string    `json:"pincode"     gorm:"type:varchar(12);not null;default:''"`
	IsDefault  bool      `json:"is_default"  gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`

	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Address.
func (Address) TableName() string { return "addresses" }
