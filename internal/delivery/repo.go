package delivery

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/pkg/db/models"
)

// Repository reads per-agency delivery billing policy.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ActiveConfig(ctx context.Context, agencyID uuid.UUID) (*models.DeliveryChargeConfig, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a delivery repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ActiveConfig returns nil when the agency never configured delivery charges;
// that agency delivers for free with no radius limit.
func (r *repository) ActiveConfig(ctx context.Context, agencyID uuid.UUID) (*models.DeliveryChargeConfig, error) {
	var cfg models.DeliveryChargeConfig
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND is_active = ?", agencyID, true).
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
