package coupons

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/pkg/db/models"
)

// ErrCouponMissing is the repo-level sentinel for an unknown coupon code.
var ErrCouponMissing = errors.New("coupon not found")

// Repository manages coupon rows for evaluation and auto-expiry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, agencyID uuid.UUID, code string) (*models.Coupon, error)
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a coupon repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, agencyID uuid.UUID, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND code = ?", agencyID, strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCouponMissing
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Deactivate flips is_active off exactly once. The is_active guard keeps
// concurrent evaluations from double-reporting the expiry.
func (r *repository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
