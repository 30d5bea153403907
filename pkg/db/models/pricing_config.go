package models

import (
	"time"

	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxConfig is the platform-wide tax policy. At most one row is active; at
// most one of Percentage/FixedAmount is set.
type TaxConfig struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TaxType     enums.TaxType    `gorm:"column:tax_type;type:text;not null;default:'none'"`
	Percentage  *decimal.Decimal `gorm:"column:percentage;type:numeric(8,4)"`
	FixedAmount *decimal.Decimal `gorm:"column:fixed_amount;type:numeric(12,2)"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// PlatformChargeConfig is the platform-wide flat per-order fee.
type PlatformChargeConfig struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// DeliveryChargeConfig is the per-agency home-delivery billing policy. An
// agency without an active config delivers for free with no radius limit.
type DeliveryChargeConfig struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgencyID         uuid.UUID                `gorm:"column:agency_id;type:uuid;not null;uniqueIndex"`
	ChargeType       enums.DeliveryChargeType `gorm:"column:charge_type;type:text;not null"`
	FixedAmount      decimal.Decimal          `gorm:"column:fixed_amount;type:numeric(12,2);not null;default:0"`
	RatePerKm        decimal.Decimal          `gorm:"column:rate_per_km;type:numeric(12,2);not null;default:0"`
	DeliveryRadiusKm decimal.Decimal          `gorm:"column:delivery_radius_km;type:numeric(8,2);not null"`
	IsActive         bool                     `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
