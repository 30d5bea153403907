package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryAgent is a courier employed by exactly one agency.
type DeliveryAgent struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgencyID  uuid.UUID `gorm:"column:agency_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	Phone     string    `gorm:"column:phone;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
