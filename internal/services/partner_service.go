// Package services – PartnerService
//
// This file implements delivery partner registration and availability
// updates. Phone numbers are unique; every availability change is logged.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/whatsapp-storefront/internal/domain"
	"github.com/tbourn/whatsapp-storefront/internal/repo"
)

// PartnerService manages delivery partners.
type PartnerService struct {
	DB *gorm.DB
}

// NewPartnerService constructs a PartnerService.
func NewPartnerService(db *gorm.DB) *PartnerService {
	return &PartnerService{DB: db}
}

// List returns active partners ordered by name.
func (s *PartnerService) List(ctx context.Context) ([]domain.DeliveryPartner, error) {
	return repo.ListPartners(ctx, s.DB)
}

// Register creates a partner, OFFLINE until they report otherwise.
func (s *PartnerService) Register(ctx context.Context, name, phone, pin string) (*domain.DeliveryPartner, error) {
	name, phone = collapseSpaces(name), strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, ErrInvalidPartner
	}
	p := &domain.DeliveryPartner{
		Name:          name,
		Phone:         phone,
		PIN:           strings.TrimSpace(pin),
		IsActive:      true,
		CurrentStatus: domain.PartnerOffline,
	}
	if err := repo.CreatePartner(ctx, s.DB, p); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicatePhone
		}
		return nil, err
	}
	return p, nil
}

// UpdateStatus sets a partner's availability and logs it. changedBy defaults
// to "System".
func (s *PartnerService) UpdateStatus(ctx context.Context, id uint, status domain.PartnerStatus, changedBy string) (*domain.DeliveryPartner, error) {
	status = domain.PartnerStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if changedBy = strings.TrimSpace(changedBy); changedBy == "" {
		changedBy = ActorSystem
	}
	var out *domain.DeliveryPartner
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := repo.UpdatePartnerStatus(ctx, tx, id, status, changedBy)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
