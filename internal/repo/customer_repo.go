// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for customers and
// their delivery addresses.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
)

// UpsertCustomer creates the customer for phone if absent and refreshes
// LastActiveAt (and Name, when non-empty) otherwise. It returns the stored row.
func UpsertCustomer(ctx context.Context, db *gorm.DB, phone, name string, now time.Time) (*domain.Customer, error) {
	name = strings.TrimSpace(name)
	c := &domain.Customer{
		Phone:             phone,
		Name:              name,
		LastActiveAt:      now,
		ConversationState: domain.StateWelcome,
		StateUpdatedAt:    now,
	}
	updates := clause.Assignments(map[string]any{"last_active_at": now, "updated_at": now})
	if name != "" {
		updates = clause.Assignments(map[string]any{"last_active_at": now, "updated_at": now, "name": name})
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoUpdates: updates,
		}).
		Create(c).Error
	if err != nil {
		return nil, err
	}
	return GetCustomerByPhone(ctx, db, phone)
}

// GetCustomerByPhone fetches a customer by phone or returns ErrNotFound.
func GetCustomerByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Customer, error) {
	var c domain.Customer
	if err := db.WithContext(ctx).Where("phone = ?", phone).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// SetConversationState persists the customer's position in the chat flow.
func SetConversationState(ctx context.Context, db *gorm.DB, customerID uint, state domain.ConversationState, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("id = ?", customerID).
		Updates(map[string]any{"conversation_state": state, "state_updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceDefaultAddress clears any existing default address of the customer
// and inserts addr as the new default. It must run inside a transaction for
// the single-default invariant to hold; callers pass the tx handle.
func ReplaceDefaultAddress(ctx context.Context, tx *gorm.DB, customerID uint, text, pincode string) (*domain.Address, error) {
	if err := tx.WithContext(ctx).
		Model(&domain.Address{}).
		Where("customer_id = ? AND is_default = ?", customerID, true).
		Update("is_default", false).Error; err != nil {
		return nil, err
	}
	a := &domain.Address{
		CustomerID: customerID,
		Text:       text,
		Pincode:    pincode,
		IsDefault:  true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetDefaultAddress returns the customer's default address or ErrNotFound.
func GetDefaultAddress(ctx context.Context, db *gorm.DB, customerID uint) (*domain.Address, error) {
	var a domain.Address
	err := db.WithContext(ctx).
		Where("customer_id = ? AND is_default = ?", customerID, true).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}
