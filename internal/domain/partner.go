package domain

import "time"

// PartnerStatus is the availability of a delivery partner.
type PartnerStatus string

const (
	PartnerAvailable PartnerStatus = "AVAILABLE"
	PartnerBusy      PartnerStatus = "BUSY"
	PartnerOffline   PartnerStatus = "OFFLINE"
)

// Valid reports whether s is a known partner status.
func (s PartnerStatus) Valid() bool {
	return s == PartnerAvailable || s == PartnerBusy || s == PartnerOffline
}

// DeliveryPartner is a rider registered with the shop. Phone is unique.
type DeliveryPartner struct {
	ID            uint          `json:"partner_id"     gorm:"primaryKey"`
	Name          string        `json:"name"           gorm:"type:varchar(255);not null"`
	Phone         string        `json:"phone"          gorm:"type:varchar(32);not null;uniqueIndex:ux_partners_phone"`
	PIN           string        `json:"-"              gorm:"type:varchar(16);not null;default:''"`
	IsActive      bool          `json:"is_active"      gorm:"not null;default:true"`
	CurrentStatus PartnerStatus `json:"current_status" gorm:"type:varchar(16);not null;default:'OFFLINE'"`
	CreatedAt     time.Time     `json:"created_at"`
}

// TableName returns the database table name for DeliveryPartner.
func (DeliveryPartner) TableName() string { return "delivery_partners" }

// PartnerAvailabilityLog records each availability change of a partner.
type PartnerAvailabilityLog struct {
	ID           uint          `json:"id"            gorm:"primaryKey"`
	PartnerID    uint          `json:"partner_id"    gorm:"not null;index"`
	StatusChange PartnerStatus `json:"status_change" gorm:"type:varchar(16);not null"`
	ChangedBy    string        `json:"changed_by"    gorm:"type:varchar(64);not null"`
	CreatedAt    time.Time     `json:"created_at"`

	Partner DeliveryPartner `json:"-" gorm:"foreignKey:PartnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for PartnerAvailabilityLog.
func (PartnerAvailabilityLog) TableName() string { return "partner_availability_logs" }
