package models

import (
	"time"

	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coupon is an agency-scoped discount rule. Codes are stored upper-cased and
// are unique per agency.
type Coupon struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgencyID      uuid.UUID          `gorm:"column:agency_id;type:uuid;not null;uniqueIndex:ux_coupons_agency_code"`
	Code          string             `gorm:"column:code;not null;uniqueIndex:ux_coupons_agency_code"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinAmount     decimal.Decimal    `gorm:"column:min_amount;type:numeric(12,2);not null;default:0"`
	MaxAmount     decimal.Decimal    `gorm:"column:max_amount;type:numeric(12,2);not null;default:0"`
	ExpiryDate    time.Time          `gorm:"column:expiry_date;not null"`
	ExpiryTime    string             `gorm:"column:expiry_time;not null;default:'23:59'"`
	IsActive      bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// ExpiresAt combines the stored date and time-of-day into the expiry instant.
// A malformed time-of-day falls back to end of day.
func (c Coupon) ExpiresAt() time.Time {
	day := c.ExpiryDate
	parsed, err := time.Parse("15:04", c.ExpiryTime)
	if err != nil {
		return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location())
}
