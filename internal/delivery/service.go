package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/pkg/db/models"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
	"github.com/gaslinkhq/gaslink-backend/pkg/logger"
	"github.com/gaslinkhq/gaslink-backend/pkg/maps"
	"github.com/gaslinkhq/gaslink-backend/pkg/redis"
)

// DistanceClient measures the road distance between two addresses.
type DistanceClient interface {
	Distance(ctx context.Context, origin, destination string) (*maps.DistanceResult, error)
}

// QuoteCache stores pre-checkout estimate results keyed by agency+address.
type QuoteCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	QuoteKey(agencyID, address string) string
}

// Charge is the evaluated delivery cost for one order.
type Charge struct {
	Amount     decimal.Decimal `json:"amount"`
	DistanceKm *float64        `json:"distance_km,omitempty"`
}

// Service prices home delivery for an agency/address pair. Checkout always
// calls Quote for a fresh evaluation; Estimate serves the pre-checkout UI
// through the cache.
type Service interface {
	Quote(ctx context.Context, tx *gorm.DB, agency *models.Agency, address string) (*Charge, error)
	Estimate(ctx context.Context, agency *models.Agency, address string) (*Charge, error)
}

type service struct {
	repo     Repository
	distance DistanceClient
	cache    QuoteCache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService wires the delivery evaluator. The cache is optional; without it
// Estimate degrades to a fresh Quote.
func NewService(repo Repository, distance DistanceClient, cache QuoteCache, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if distance == nil {
		return nil, fmt.Errorf("distance client required")
	}
	return &service{repo: repo, distance: distance, cache: cache, cacheTTL: cacheTTL, logg: logg}, nil
}

func (s *service) Quote(ctx context.Context, tx *gorm.DB, agency *models.Agency, address string) (*Charge, error) {
	if agency == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agency is required")
	}
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}

	cfg, err := s.repo.WithTx(tx).ActiveConfig(ctx, agency.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading delivery charge config")
	}
	if cfg == nil {
		return &Charge{Amount: decimal.Zero}, nil
	}

	result, err := s.distance.Distance(ctx, agency.Address, address)
	if err != nil {
		return nil, err
	}
	distanceKm := result.DistanceKm

	if cfg.DeliveryRadiusKm.IsPositive() {
		radius, _ := cfg.DeliveryRadiusKm.Float64()
		if distanceKm > radius {
			return nil, pkgerrors.Newf(pkgerrors.CodeOutOfRadius,
				"address is %.1f km away, outside the %.1f km delivery radius", distanceKm, radius).
				WithDetails(map[string]any{
					"distance_km": distanceKm,
					"radius_km":   radius,
				})
		}
	}

	// Charges floor to whole currency units, never round.
	charge := Charge{DistanceKm: &distanceKm}
	switch cfg.ChargeType {
	case enums.DeliveryChargeTypeFixed:
		charge.Amount = cfg.FixedAmount.Floor()
	case enums.DeliveryChargeTypePerKm:
		charge.Amount = cfg.RatePerKm.Mul(decimal.NewFromFloat(distanceKm)).Floor()
	default:
		charge.Amount = decimal.Zero
	}
	return &charge, nil
}

// Estimate answers the storefront's "what would delivery cost" query, caching
// positive results. Rejections (out of radius, dependency failures) are never
// cached.
func (s *service) Estimate(ctx context.Context, agency *models.Agency, address string) (*Charge, error) {
	if s.cache == nil || agency == nil {
		return s.Quote(ctx, nil, agency, address)
	}

	key := s.cache.QuoteKey(agency.ID.String(), address)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var charge Charge
		if jsonErr := json.Unmarshal([]byte(cached), &charge); jsonErr == nil {
			return &charge, nil
		}
	} else if !errors.Is(err, redis.ErrCacheMiss) && s.logg != nil {
		s.logg.Warn(ctx, "delivery quote cache read failed")
	}

	charge, err := s.Quote(ctx, nil, agency, address)
	if err != nil {
		return nil, err
	}

	if encoded, jsonErr := json.Marshal(charge); jsonErr == nil {
		if setErr := s.cache.Set(ctx, key, string(encoded), s.cacheTTL); setErr != nil && s.logg != nil {
			s.logg.Warn(ctx, "delivery quote cache write failed")
		}
	}
	return charge, nil
}
