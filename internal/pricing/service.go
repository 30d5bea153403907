package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
)

// priceTolerance is the largest client/catalog unit-price drift accepted
// before a checkout is rejected for re-confirmation.
var priceTolerance = decimal.NewFromFloat(0.01)

// QuoteItem is one requested line with the price the client last saw.
type QuoteItem struct {
	ProductID        uuid.UUID
	VariantLabel     string
	Quantity         int
	ClaimedUnitPrice decimal.Decimal
}

// PricedItem is a fully priced line with its distributed charge shares.
type PricedItem struct {
	VariantID     uuid.UUID
	ProductID     uuid.UUID
	ProductName   string
	VariantLabel  string
	UnitPrice     decimal.Decimal
	Quantity      int
	ProductAmount decimal.Decimal
	TaxShare      decimal.Decimal
	PlatformShare decimal.Decimal
	ItemTotal     decimal.Decimal
}

// Quote is the authoritative pricing result for a checkout request.
type Quote struct {
	Items          []PricedItem
	Subtotal       decimal.Decimal
	TaxType        enums.TaxType
	TaxValue       *decimal.Decimal
	TaxAmount      decimal.Decimal
	PlatformCharge decimal.Decimal
}

// Service re-prices checkout requests from the catalog, never trusting
// client-supplied amounts beyond the mismatch check.
type Service interface {
	Price(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, items []QuoteItem) (*Quote, error)
}

type service struct {
	repo Repository
}

// NewService wires the pricing calculator with its repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Price(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, items []QuoteItem) (*Quote, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	repo := s.repo.WithTx(tx)

	priced := make([]PricedItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid quantity %d for product %s", item.Quantity, item.ProductID)
		}
		resolved, err := repo.ResolveVariant(ctx, agencyID, item.ProductID, item.VariantLabel)
		if errors.Is(err, ErrVariantUnavailable) {
			return nil, pkgerrors.New(pkgerrors.CodeVariantNotFound, "variant is not sold by this agency").
				WithDetails(map[string]any{
					"product_id":    item.ProductID,
					"variant_label": item.VariantLabel,
				})
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving variant price")
		}

		if resolved.UnitPrice.Sub(item.ClaimedUnitPrice).Abs().GreaterThan(priceTolerance) {
			return nil, pkgerrors.New(pkgerrors.CodePriceMismatch, "unit price changed since the cart was built").
				WithDetails(map[string]any{
					"product_id":    item.ProductID,
					"variant_label": item.VariantLabel,
					"current_price": resolved.UnitPrice,
					"claimed_price": item.ClaimedUnitPrice,
				})
		}

		amount := resolved.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		subtotal = subtotal.Add(amount)
		priced = append(priced, PricedItem{
			VariantID:     resolved.VariantID,
			ProductID:     resolved.ProductID,
			ProductName:   resolved.ProductName,
			VariantLabel:  resolved.Label,
			UnitPrice:     resolved.UnitPrice,
			Quantity:      item.Quantity,
			ProductAmount: amount,
		})
	}
	subtotal = subtotal.Round(2)

	taxType, taxValue, taxAmount, err := s.computeTax(ctx, repo, subtotal)
	if err != nil {
		return nil, err
	}

	platformCharge, err := s.platformCharge(ctx, repo)
	if err != nil {
		return nil, err
	}

	weights := make([]decimal.Decimal, len(priced))
	for i := range priced {
		weights[i] = priced[i].ProductAmount
	}
	taxShares := DistributeProportionally(taxAmount, weights)
	platformShares := DistributeProportionally(platformCharge, weights)
	for i := range priced {
		priced[i].TaxShare = taxShares[i]
		priced[i].PlatformShare = platformShares[i]
		priced[i].ItemTotal = priced[i].ProductAmount.
			Add(taxShares[i]).
			Add(platformShares[i]).
			Round(2)
	}

	return &Quote{
		Items:          priced,
		Subtotal:       subtotal,
		TaxType:        taxType,
		TaxValue:       taxValue,
		TaxAmount:      taxAmount,
		PlatformCharge: platformCharge,
	}, nil
}

func (s *service) computeTax(ctx context.Context, repo Repository, subtotal decimal.Decimal) (enums.TaxType, *decimal.Decimal, decimal.Decimal, error) {
	cfg, err := repo.ActiveTaxConfig(ctx)
	if err != nil {
		return "", nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading tax config")
	}
	if cfg == nil || cfg.TaxType == enums.TaxTypeNone {
		return enums.TaxTypeNone, nil, decimal.Zero, nil
	}

	switch cfg.TaxType {
	case enums.TaxTypePercentage:
		if cfg.Percentage == nil {
			return enums.TaxTypeNone, nil, decimal.Zero, nil
		}
		amount := subtotal.Mul(*cfg.Percentage).Div(decimal.NewFromInt(100)).Round(2)
		return cfg.TaxType, cfg.Percentage, amount, nil
	case enums.TaxTypeFixed:
		if cfg.FixedAmount == nil {
			return enums.TaxTypeNone, nil, decimal.Zero, nil
		}
		return cfg.TaxType, cfg.FixedAmount, cfg.FixedAmount.Round(2), nil
	default:
		return enums.TaxTypeNone, nil, decimal.Zero, nil
	}
}

func (s *service) platformCharge(ctx context.Context, repo Repository) (decimal.Decimal, error) {
	cfg, err := repo.ActivePlatformCharge(ctx)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading platform charge config")
	}
	if cfg == nil {
		return decimal.Zero, nil
	}
	return cfg.Amount.Round(2), nil
}

// Total combines the order-level amounts into the amount the customer pays.
func Total(subtotal, taxAmount, platformCharge, deliveryCharge, couponDiscount decimal.Decimal) decimal.Decimal {
	return subtotal.
		Add(taxAmount).
		Add(platformCharge).
		Add(deliveryCharge).
		Sub(couponDiscount).
		Round(2)
}
