package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgencyInventory is the per-(product, agency) stock record. Visibility to
// customers is gated by IsActive independently of the catalog product flag.
type AgencyInventory struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AgencyID          uuid.UUID          `gorm:"column:agency_id;type:uuid;not null;uniqueIndex:ux_agency_inventory_agency_product"`
	ProductID         uuid.UUID          `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_agency_inventory_agency_product"`
	IsActive          bool               `gorm:"column:is_active;not null;default:true"`
	LowStockThreshold int                `gorm:"column:low_stock_threshold;not null;default:5"`
	Variants          []InventoryVariant `gorm:"foreignKey:InventoryID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// InventoryVariant is a purchasable unit (cylinder size) with its own price
// and stock counter. Stock must never go negative; decrements happen through
// the inventory service's conditional update only.
type InventoryVariant struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InventoryID uuid.UUID       `gorm:"column:inventory_id;type:uuid;not null;uniqueIndex:ux_inventory_variant_label"`
	Label       string          `gorm:"column:label;not null;uniqueIndex:ux_inventory_variant_label"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	Position    int             `gorm:"column:position;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
