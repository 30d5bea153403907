package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/pkg/db/models"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
)

type stubPricingRepo struct {
	tax      *models.TaxConfig
	platform *models.PlatformChargeConfig
	variants map[string]*ResolvedVariant
}

func (s *stubPricingRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPricingRepo) ActiveTaxConfig(ctx context.Context) (*models.TaxConfig, error) {
	return s.tax, nil
}

func (s *stubPricingRepo) ActivePlatformCharge(ctx context.Context) (*models.PlatformChargeConfig, error) {
	return s.platform, nil
}

func (s *stubPricingRepo) ResolveVariant(ctx context.Context, agencyID, productID uuid.UUID, label string) (*ResolvedVariant, error) {
	if v, ok := s.variants[productID.String()+"/"+label]; ok {
		return v, nil
	}
	return nil, ErrVariantUnavailable
}

func (s *stubPricingRepo) addVariant(productID uuid.UUID, label, price string) {
	if s.variants == nil {
		s.variants = make(map[string]*ResolvedVariant)
	}
	s.variants[productID.String()+"/"+label] = &ResolvedVariant{
		VariantID:   uuid.New(),
		ProductID:   productID,
		ProductName: "LPG Cylinder",
		Label:       label,
		UnitPrice:   dec(price),
	}
}

func TestPriceFixedTaxDistribution(t *testing.T) {
	t.Parallel()

	productA, productB := uuid.New(), uuid.New()
	fixed := dec("50")
	repo := &stubPricingRepo{
		tax: &models.TaxConfig{TaxType: enums.TaxTypeFixed, FixedAmount: &fixed},
	}
	repo.addVariant(productA, "14.2kg", "300")
	repo.addVariant(productB, "19kg", "700")
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	quote, err := svc.Price(context.Background(), &gorm.DB{}, uuid.New(), []QuoteItem{
		{ProductID: productA, VariantLabel: "14.2kg", Quantity: 1, ClaimedUnitPrice: dec("300")},
		{ProductID: productB, VariantLabel: "19kg", Quantity: 1, ClaimedUnitPrice: dec("700")},
	})
	if err != nil {
		t.Fatalf("price: %v", err)
	}

	if !quote.Subtotal.Equal(dec("1000")) {
		t.Fatalf("expected subtotal 1000, got %s", quote.Subtotal)
	}
	if !quote.TaxAmount.Equal(dec("50")) {
		t.Fatalf("expected tax 50, got %s", quote.TaxAmount)
	}
	if !quote.Items[0].TaxShare.Equal(dec("15")) || !quote.Items[1].TaxShare.Equal(dec("35")) {
		t.Fatalf("unexpected tax shares %s / %s", quote.Items[0].TaxShare, quote.Items[1].TaxShare)
	}
}

func TestPricePercentageTax(t *testing.T) {
	t.Parallel()

	product := uuid.New()
	pct := dec("5")
	repo := &stubPricingRepo{
		tax:      &models.TaxConfig{TaxType: enums.TaxTypePercentage, Percentage: &pct},
		platform: &models.PlatformChargeConfig{Amount: dec("10")},
	}
	repo.addVariant(product, "14.2kg", "450.50")
	svc, _ := NewService(repo)

	quote, err := svc.Price(context.Background(), &gorm.DB{}, uuid.New(), []QuoteItem{
		{ProductID: product, VariantLabel: "14.2kg", Quantity: 2, ClaimedUnitPrice: dec("450.50")},
	})
	if err != nil {
		t.Fatalf("price: %v", err)
	}

	if !quote.Subtotal.Equal(dec("901")) {
		t.Fatalf("expected subtotal 901, got %s", quote.Subtotal)
	}
	// 901 * 5% = 45.05
	if !quote.TaxAmount.Equal(dec("45.05")) {
		t.Fatalf("expected tax 45.05, got %s", quote.TaxAmount)
	}
	if !quote.PlatformCharge.Equal(dec("10")) {
		t.Fatalf("expected platform charge 10, got %s", quote.PlatformCharge)
	}
	if !quote.Items[0].ItemTotal.Equal(dec("956.05")) {
		t.Fatalf("expected item total 956.05, got %s", quote.Items[0].ItemTotal)
	}
}

func TestPriceNoTaxConfigured(t *testing.T) {
	t.Parallel()

	product := uuid.New()
	repo := &stubPricingRepo{}
	repo.addVariant(product, "5kg", "200")
	svc, _ := NewService(repo)

	quote, err := svc.Price(context.Background(), &gorm.DB{}, uuid.New(), []QuoteItem{
		{ProductID: product, VariantLabel: "5kg", Quantity: 1, ClaimedUnitPrice: dec("200")},
	})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if quote.TaxType != enums.TaxTypeNone || !quote.TaxAmount.IsZero() {
		t.Fatalf("expected no tax, got %s %s", quote.TaxType, quote.TaxAmount)
	}
	if !quote.PlatformCharge.IsZero() {
		t.Fatalf("expected zero platform charge, got %s", quote.PlatformCharge)
	}
}

func TestPriceMismatchRejected(t *testing.T) {
	t.Parallel()

	product := uuid.New()
	repo := &stubPricingRepo{}
	repo.addVariant(product, "14.2kg", "305")
	svc, _ := NewService(repo)

	_, err := svc.Price(context.Background(), &gorm.DB{}, uuid.New(), []QuoteItem{
		{ProductID: product, VariantLabel: "14.2kg", Quantity: 1, ClaimedUnitPrice: dec("300")},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodePriceMismatch) {
		t.Fatalf("expected price mismatch, got %v", err)
	}
}

func TestPriceToleratesSubCentDrift(t *testing.T) {
	t.Parallel()

	product := uuid.New()
	repo := &stubPricingRepo{}
	repo.addVariant(product, "14.2kg", "300.00")
	svc, _ := NewService(repo)

	_, err := svc.Price(context.Background(), &gorm.DB{}, uuid.New(), []QuoteItem{
		{ProductID: product, VariantLabel: "14.2kg", Quantity: 1, ClaimedUnitPrice: dec("300.01")},
	})
	if err != nil {
		t.Fatalf("expected drift within tolerance to pass, got %v", err)
	}
}

func TestPriceUnknownVariant(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubPricingRepo{})
	_, err := svc.Price(context.Background(), &gorm.DB{}, uuid.New(), []QuoteItem{
		{ProductID: uuid.New(), VariantLabel: "19kg", Quantity: 1, ClaimedUnitPrice: dec("700")},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeVariantNotFound) {
		t.Fatalf("expected variant not found, got %v", err)
	}
}

func TestTotal(t *testing.T) {
	t.Parallel()

	got := Total(dec("1000"), dec("50"), dec("10"), dec("40"), dec("100"))
	if !got.Equal(dec("1000")) {
		t.Fatalf("expected total 1000, got %s", got)
	}
}
