package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/pkg/db/models"
)

// ErrVariantMissing is the repo-level sentinel for an absent variant row.
// Services translate it into domain errors appropriate to the operation.
var ErrVariantMissing = errors.New("inventory variant not found")

// ErrStockExhausted indicates the conditional decrement matched the variant
// but the remaining stock could not cover the requested quantity.
var ErrStockExhausted = errors.New("stock below requested quantity")

// StockState describes a variant immediately after a stock mutation.
type StockState struct {
	VariantID         uuid.UUID
	InventoryID       uuid.UUID
	AgencyID          uuid.UUID
	ProductID         uuid.UUID
	Label             string
	Remaining         int
	LowStockThreshold int
}

// Repository manages stock counters for agency inventory variants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveVariant(ctx context.Context, agencyID, productID uuid.UUID, label string) (*models.InventoryVariant, *models.AgencyInventory, error)
	DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) (*StockState, error)
	IncrementStock(ctx context.Context, variantID uuid.UUID, qty int) (*StockState, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveVariant(ctx context.Context, agencyID, productID uuid.UUID, label string) (*models.InventoryVariant, *models.AgencyInventory, error) {
	var inv models.AgencyInventory
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND product_id = ? AND is_active = ?", agencyID, productID, true).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrVariantMissing
	}
	if err != nil {
		return nil, nil, err
	}

	var variant models.InventoryVariant
	err = r.db.WithContext(ctx).
		Where("inventory_id = ? AND label = ?", inv.ID, label).
		First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrVariantMissing
	}
	if err != nil {
		return nil, nil, err
	}
	return &variant, &inv, nil
}

// DecrementStock atomically subtracts qty from the variant's stock. The guard
// in the WHERE clause makes concurrent over-reservation impossible regardless
// of isolation level.
func (r *repository) DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) (*StockState, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryVariant{}).
		Where("id = ? AND stock >= ?", variantID, qty).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).
			Model(&models.InventoryVariant{}).
			Where("id = ?", variantID).
			Count(&exists).Error; err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, ErrVariantMissing
		}
		return nil, ErrStockExhausted
	}
	return r.loadStockState(ctx, variantID)
}

// IncrementStock adds qty back to the variant's stock. A missing variant row
// yields a nil state rather than an error.
func (r *repository) IncrementStock(ctx context.Context, variantID uuid.UUID, qty int) (*StockState, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryVariant{}).
		Where("id = ?", variantID).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.loadStockState(ctx, variantID)
}

func (r *repository) loadStockState(ctx context.Context, variantID uuid.UUID) (*StockState, error) {
	var variant models.InventoryVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		return nil, err
	}
	var inv models.AgencyInventory
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", variant.InventoryID).Error; err != nil {
		return nil, err
	}
	return &StockState{
		VariantID:         variant.ID,
		InventoryID:       inv.ID,
		AgencyID:          inv.AgencyID,
		ProductID:         inv.ProductID,
		Label:             variant.Label,
		Remaining:         variant.Stock,
		LowStockThreshold: inv.LowStockThreshold,
	}, nil
}
