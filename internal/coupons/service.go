package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
	"github.com/gaslinkhq/gaslink-backend/pkg/logger"
	"github.com/gaslinkhq/gaslink-backend/pkg/outbox"
	"github.com/gaslinkhq/gaslink-backend/pkg/outbox/payloads"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Evaluation is the discount granted by a valid coupon.
type Evaluation struct {
	CouponID uuid.UUID
	Code     string
	Discount decimal.Decimal
}

// Service evaluates coupon codes against an order amount. Every evaluation
// touches the coupon: a coupon found past its expiry instant is deactivated
// in the same transaction, whether the caller is previewing or checking out.
type Service interface {
	Evaluate(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, code string, orderAmount decimal.Decimal) (*Evaluation, error)
}

type service struct {
	repo   Repository
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the coupon evaluator with its repository and event sink.
func NewService(repo Repository, ob outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, outbox: ob, logg: logg, now: time.Now}, nil
}

func (s *service) Evaluate(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, code string, orderAmount decimal.Decimal) (*Evaluation, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	repo := s.repo.WithTx(tx)

	coupon, err := repo.FindByCode(ctx, agencyID, normalized)
	if errors.Is(err, ErrCouponMissing) {
		return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon code not recognised").
			WithDetails(map[string]any{"code": normalized})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading coupon")
	}

	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeCouponInvalid, "coupon is no longer active").
			WithDetails(map[string]any{"code": normalized})
	}

	if s.now().After(coupon.ExpiresAt()) {
		if err := s.expire(ctx, tx, repo, coupon.ID, coupon.AgencyID, normalized); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeCouponExpired, "coupon expired").
			WithDetails(map[string]any{"code": normalized, "expired_at": coupon.ExpiresAt()})
	}

	if coupon.MinAmount.IsPositive() && orderAmount.LessThan(coupon.MinAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeCouponBelowMinimum, "order amount below coupon minimum").
			WithDetails(map[string]any{"code": normalized, "min_amount": coupon.MinAmount})
	}
	if coupon.MaxAmount.IsPositive() && orderAmount.GreaterThan(coupon.MaxAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeCouponAboveMaximum, "order amount above coupon maximum").
			WithDetails(map[string]any{"code": normalized, "max_amount": coupon.MaxAmount})
	}

	discount := s.discountFor(coupon.DiscountType, coupon.DiscountValue, orderAmount)
	return &Evaluation{CouponID: coupon.ID, Code: normalized, Discount: discount}, nil
}

// discountFor never exceeds the order amount: a fixed discount larger than
// the order clamps to the order total.
func (s *service) discountFor(discountType enums.DiscountType, value, orderAmount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch discountType {
	case enums.DiscountTypePercentage:
		discount = orderAmount.Mul(value).Div(decimal.NewFromInt(100)).Round(2)
	case enums.DiscountTypeFixed:
		discount = value.Round(2)
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(orderAmount) {
		return orderAmount.Round(2)
	}
	return discount
}

func (s *service) expire(ctx context.Context, tx *gorm.DB, repo Repository, id, agencyID uuid.UUID, code string) error {
	flipped, err := repo.Deactivate(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivating expired coupon")
	}
	if !flipped {
		return nil
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventCouponExpired,
		AggregateType: enums.AggregateCoupon,
		AggregateID:   id,
		Data: payloads.CouponExpiredEvent{
			CouponID:  id,
			AgencyID:  agencyID,
			Code:      code,
			ExpiredAt: s.now(),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing coupon expired event")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"coupon_code": code,
			"agency_id":   agencyID.String(),
		}), "coupon deactivated on touch")
	}
	return nil
}
