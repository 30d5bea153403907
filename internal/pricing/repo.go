package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/pkg/db/models"
)

// ErrVariantUnavailable is returned when no active inventory backs the
// requested (agency, product, label) triple.
var ErrVariantUnavailable = errors.New("variant unavailable for agency")

// ResolvedVariant is the authoritative catalog entry for a checkout line.
type ResolvedVariant struct {
	VariantID   uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Label       string
	UnitPrice   decimal.Decimal
}

// Repository reads pricing policy and authoritative variant prices.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ActiveTaxConfig(ctx context.Context) (*models.TaxConfig, error)
	ActivePlatformCharge(ctx context.Context) (*models.PlatformChargeConfig, error)
	ResolveVariant(ctx context.Context, agencyID, productID uuid.UUID, label string) (*ResolvedVariant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a pricing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ActiveTaxConfig returns the newest active tax policy, or nil when the
// platform has never configured tax.
func (r *repository) ActiveTaxConfig(ctx context.Context) (*models.TaxConfig, error) {
	var cfg models.TaxConfig
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ActivePlatformCharge returns the newest active platform fee, or nil when
// none is configured.
func (r *repository) ActivePlatformCharge(ctx context.Context) (*models.PlatformChargeConfig, error) {
	var cfg models.PlatformChargeConfig
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *repository) ResolveVariant(ctx context.Context, agencyID, productID uuid.UUID, label string) (*ResolvedVariant, error) {
	var inv models.AgencyInventory
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND product_id = ? AND is_active = ?", agencyID, productID, true).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVariantUnavailable
	}
	if err != nil {
		return nil, err
	}

	var variant models.InventoryVariant
	err = r.db.WithContext(ctx).
		Where("inventory_id = ? AND label = ?", inv.ID, label).
		First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVariantUnavailable
	}
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantUnavailable
		}
		return nil, err
	}

	return &ResolvedVariant{
		VariantID:   variant.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Label:       variant.Label,
		UnitPrice:   variant.Price,
	}, nil
}
