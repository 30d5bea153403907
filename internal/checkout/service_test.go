package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/internal/agencies"
	"github.com/gaslinkhq/gaslink-backend/internal/coupons"
	"github.com/gaslinkhq/gaslink-backend/internal/delivery"
	"github.com/gaslinkhq/gaslink-backend/internal/inventory"
	"github.com/gaslinkhq/gaslink-backend/internal/orders"
	"github.com/gaslinkhq/gaslink-backend/internal/pricing"
	"github.com/gaslinkhq/gaslink-backend/pkg/db/models"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
	"github.com/gaslinkhq/gaslink-backend/pkg/outbox"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubAgencyRepo struct {
	agency *models.Agency
}

func (s *stubAgencyRepo) WithTx(tx *gorm.DB) agencies.Repository { return s }

func (s *stubAgencyRepo) GetAgency(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	if s.agency == nil || s.agency.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "agency not found")
	}
	return s.agency, nil
}

func (s *stubAgencyRepo) GetActiveAgent(ctx context.Context, agencyID, agentID uuid.UUID) (*models.DeliveryAgent, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery agent not found for agency")
}

type stubOrderRepo struct {
	orders.Repository
	created     *models.Order
	items       []models.OrderItem
	createErrs  []error
	createCalls int
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) error {
	s.createCalls++
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return err
		}
	}
	order.ID = uuid.New()
	s.created = order
	return nil
}

func (s *stubOrderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	s.items = items
	return nil
}

type stubPricing struct {
	quote *pricing.Quote
	err   error
}

func (s *stubPricing) Price(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, items []pricing.QuoteItem) (*pricing.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.quote, nil
}

type stubCoupons struct {
	eval *coupons.Evaluation
	err  error
}

func (s *stubCoupons) Evaluate(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, code string, orderAmount decimal.Decimal) (*coupons.Evaluation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.eval, nil
}

type stubDelivery struct {
	charge *delivery.Charge
	err    error
	calls  int
}

func (s *stubDelivery) Quote(ctx context.Context, tx *gorm.DB, agency *models.Agency, address string) (*delivery.Charge, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.charge, nil
}

type stubReserver struct {
	reserved []inventory.Reservation
	err      error
}

func (s *stubReserver) Reserve(ctx context.Context, tx *gorm.DB, reservations []inventory.Reservation) error {
	if s.err != nil {
		return s.err
	}
	s.reserved = append(s.reserved, reservations...)
	return nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type fixture struct {
	agency    *models.Agency
	orderRepo *stubOrderRepo
	pricing   *stubPricing
	coupons   *stubCoupons
	delivery  *stubDelivery
	reserver  *stubReserver
	outbox    *stubOutbox
	svc       Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	agency := &models.Agency{ID: uuid.New(), Name: "North Depot", Address: "12 Industrial Rd", IsActive: true}
	variantA, variantB := uuid.New(), uuid.New()
	f := &fixture{
		agency:    agency,
		orderRepo: &stubOrderRepo{},
		pricing: &stubPricing{quote: &pricing.Quote{
			Items: []pricing.PricedItem{
				{
					VariantID: variantA, ProductID: uuid.New(), ProductName: "LPG Cylinder",
					VariantLabel: "14.2kg", UnitPrice: dec("300"), Quantity: 1,
					ProductAmount: dec("300"), TaxShare: dec("15"), PlatformShare: dec("3"), ItemTotal: dec("318"),
				},
				{
					VariantID: variantB, ProductID: uuid.New(), ProductName: "LPG Cylinder",
					VariantLabel: "19kg", UnitPrice: dec("700"), Quantity: 1,
					ProductAmount: dec("700"), TaxShare: dec("35"), PlatformShare: dec("7"), ItemTotal: dec("742"),
				},
			},
			Subtotal:       dec("1000"),
			TaxType:        enums.TaxTypeFixed,
			TaxAmount:      dec("50"),
			PlatformCharge: dec("10"),
		}},
		coupons:  &stubCoupons{eval: &coupons.Evaluation{CouponID: uuid.New(), Code: "DIWALI10", Discount: dec("100")}},
		delivery: &stubDelivery{charge: &delivery.Charge{Amount: dec("40")}},
		reserver: &stubReserver{},
		outbox:   &stubOutbox{},
	}

	svc, err := NewService(stubTx{}, f.orderRepo, &stubAgencyRepo{agency: agency}, f.pricing, f.coupons, f.delivery, f.reserver, f.outbox, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func baseInput(agencyID uuid.UUID) Input {
	address := "44 Main St"
	code := "diwali10"
	return Input{
		AgencyID: agencyID,
		Customer: Customer{
			ID:      uuid.New(),
			Name:    "Priya",
			Email:   "priya@example.com",
			Phone:   "9999999999",
			Address: &address,
		},
		DeliveryMode: enums.DeliveryModeHomeDelivery,
		Items: []pricing.QuoteItem{
			{ProductID: uuid.New(), VariantLabel: "14.2kg", Quantity: 1, ClaimedUnitPrice: dec("300")},
			{ProductID: uuid.New(), VariantLabel: "19kg", Quantity: 1, ClaimedUnitPrice: dec("700")},
		},
		CouponCode: &code,
	}
}

func TestCheckoutHomeDelivery(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	order, err := f.svc.Checkout(context.Background(), baseInput(f.agency.ID))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// 1000 + 50 + 10 + 40 - 100
	if !order.TotalAmount.Equal(dec("1000")) {
		t.Fatalf("expected total 1000, got %s", order.TotalAmount)
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusUnpaid {
		t.Fatalf("unexpected initial state %s/%s", order.Status, order.PaymentStatus)
	}
	if order.CouponCode == nil || *order.CouponCode != "DIWALI10" {
		t.Fatalf("expected normalized coupon code, got %v", order.CouponCode)
	}
	if len(f.orderRepo.items) != 2 {
		t.Fatalf("expected 2 item snapshots, got %d", len(f.orderRepo.items))
	}
	if len(f.reserver.reserved) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(f.reserver.reserved))
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected order created event, got %+v", f.outbox.events)
	}
}

func TestCheckoutPickupSkipsDeliveryQuote(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := baseInput(f.agency.ID)
	input.DeliveryMode = enums.DeliveryModePickup
	input.Customer.Address = nil
	input.CouponCode = nil

	order, err := f.svc.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if f.delivery.calls != 0 {
		t.Fatalf("expected no delivery quote for pickup, got %d calls", f.delivery.calls)
	}
	if !order.DeliveryCharge.IsZero() {
		t.Fatalf("expected zero delivery charge, got %s", order.DeliveryCharge)
	}
	// 1000 + 50 + 10
	if !order.TotalAmount.Equal(dec("1060")) {
		t.Fatalf("expected total 1060, got %s", order.TotalAmount)
	}
}

func TestCheckoutHomeDeliveryRequiresAddress(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	input := baseInput(f.agency.ID)
	input.Customer.Address = nil

	_, err := f.svc.Checkout(context.Background(), input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutStockConflictAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.reserver.err = pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock")

	_, err := f.svc.Checkout(context.Background(), baseInput(f.agency.ID))
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if f.orderRepo.created != nil {
		t.Fatal("expected no order persisted")
	}
}

func TestCheckoutPriceMismatchPropagates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.pricing.err = pkgerrors.New(pkgerrors.CodePriceMismatch, "unit price changed since the cart was built")

	_, err := f.svc.Checkout(context.Background(), baseInput(f.agency.ID))
	if !pkgerrors.IsCode(err, pkgerrors.CodePriceMismatch) {
		t.Fatalf("expected price mismatch, got %v", err)
	}
}

func TestCheckoutInactiveAgencyRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.agency.IsActive = false

	_, err := f.svc.Checkout(context.Background(), baseInput(f.agency.ID))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutRetriesOrderNumberCollision(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.orderRepo.createErrs = []error{errors.New(`duplicate key value violates unique constraint "ux_orders_order_number"`)}

	order, err := f.svc.Checkout(context.Background(), baseInput(f.agency.ID))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if f.orderRepo.createCalls != 2 {
		t.Fatalf("expected 2 create attempts, got %d", f.orderRepo.createCalls)
	}
	if order == nil || order.OrderNumber == "" {
		t.Fatal("expected order created on retry")
	}
}

func TestCheckoutCouponFailureAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.coupons.err = pkgerrors.New(pkgerrors.CodeCouponExpired, "coupon expired")

	_, err := f.svc.Checkout(context.Background(), baseInput(f.agency.ID))
	if !pkgerrors.IsCode(err, pkgerrors.CodeCouponExpired) {
		t.Fatalf("expected coupon expired, got %v", err)
	}
	if len(f.reserver.reserved) != 0 {
		t.Fatal("expected no reservations after coupon failure")
	}
}
