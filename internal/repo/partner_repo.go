// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for delivery
// partners and their availability log.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
)

// ListPartners returns active partners ordered by name.
func ListPartners(ctx context.Context, db *gorm.DB) ([]domain.DeliveryPartner, error) {
	var out []domain.DeliveryPartner
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CreatePartner inserts a partner and returns ErrDuplicate when the phone is
// already registered.
func CreatePartner(ctx context.Context, db *gorm.DB, p *domain.DeliveryPartner) error {
	if p.CurrentStatus == "" {
		p.CurrentStatus = domain.PartnerOffline
	}
	err := db.WithContext(ctx).Create(p).Error
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// UpdatePartnerStatus sets the partner's availability and appends an
// availability log row. Callers run it in a transaction.
func UpdatePartnerStatus(ctx context.Context, db *gorm.DB, id uint, status domain.PartnerStatus, changedBy string) (*domain.DeliveryPartner, error) {
	res := db.WithContext(ctx).
		Model(&domain.DeliveryPartner{}).
		Where("id = ?", id).
		Update("current_status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	entry := &domain.PartnerAvailabilityLog{
		PartnerID:    id,
		StatusChange: status,
		ChangedBy:    changedBy,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Omit("Partner").Create(entry).Error; err != nil {
		return nil, err
	}
	var p domain.DeliveryPartner
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
