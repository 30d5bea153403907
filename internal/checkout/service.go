package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/internal/agencies"
	"github.com/gaslinkhq/gaslink-backend/internal/coupons"
	"github.com/gaslinkhq/gaslink-backend/internal/delivery"
	"github.com/gaslinkhq/gaslink-backend/internal/inventory"
	"github.com/gaslinkhq/gaslink-backend/internal/orders"
	"github.com/gaslinkhq/gaslink-backend/internal/pricing"
	"github.com/gaslinkhq/gaslink-backend/pkg/db"
	"github.com/gaslinkhq/gaslink-backend/pkg/db/models"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
	"github.com/gaslinkhq/gaslink-backend/pkg/logger"
	"github.com/gaslinkhq/gaslink-backend/pkg/metrics"
	"github.com/gaslinkhq/gaslink-backend/pkg/outbox"
	"github.com/gaslinkhq/gaslink-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type couponEvaluator interface {
	Evaluate(ctx context.Context, tx *gorm.DB, agencyID uuid.UUID, code string, orderAmount decimal.Decimal) (*coupons.Evaluation, error)
}

type deliveryQuoter interface {
	Quote(ctx context.Context, tx *gorm.DB, agency *models.Agency, address string) (*delivery.Charge, error)
}

type stockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, reservations []inventory.Reservation) error
}

// Customer is the buyer snapshot frozen onto the order.
type Customer struct {
	ID      uuid.UUID
	Name    string
	Email   string
	Phone   string
	Address *string
}

// Input is a checkout request after transport-level validation.
type Input struct {
	AgencyID     uuid.UUID
	Customer     Customer
	DeliveryMode enums.DeliveryMode
	Items        []pricing.QuoteItem
	CouponCode   *string
}

// Service turns a cart into a pending order: authoritative re-pricing,
// all-or-nothing stock reservation, and the order snapshot all commit in a
// single transaction.
type Service interface {
	Checkout(ctx context.Context, input Input) (*models.Order, error)
}

type service struct {
	tx        txRunner
	orderRepo orders.Repository
	agencies  agencies.Repository
	pricing   pricing.Service
	coupons   couponEvaluator
	delivery  deliveryQuoter
	inventory stockReserver
	outbox    outboxPublisher
	metrics   *metrics.EngineMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the checkout orchestrator.
func NewService(
	tx txRunner,
	orderRepo orders.Repository,
	agencyRepo agencies.Repository,
	pricingSvc pricing.Service,
	couponSvc couponEvaluator,
	deliverySvc deliveryQuoter,
	inventorySvc stockReserver,
	ob outboxPublisher,
	engineMetrics *metrics.EngineMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if agencyRepo == nil {
		return nil, fmt.Errorf("agency repository required")
	}
	if pricingSvc == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if deliverySvc == nil {
		return nil, fmt.Errorf("delivery service required")
	}
	if inventorySvc == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:        tx,
		orderRepo: orderRepo,
		agencies:  agencyRepo,
		pricing:   pricingSvc,
		coupons:   couponSvc,
		delivery:  deliverySvc,
		inventory: inventorySvc,
		outbox:    ob,
		metrics:   engineMetrics,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (*models.Order, error) {
	started := s.now()
	order, err := s.checkout(ctx, input)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			s.metrics.IncStockConflict()
		}
	}
	s.metrics.ObserveCheckout(outcome, s.now().Sub(started))
	return order, err
}

func (s *service) checkout(ctx context.Context, input Input) (*models.Order, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	order, err := s.runCheckout(ctx, input)
	if isOrderNumberCollision(err) {
		// One retry with a fresh number; the unique index aborted the first
		// transaction before anything committed.
		order, err = s.runCheckout(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"agency_id":    order.AgencyID.String(),
			"total":        order.TotalAmount.String(),
		}), "order created")
	}
	return order, nil
}

func (s *service) validate(input Input) error {
	if input.AgencyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "agency id is required")
	}
	if input.Customer.ID == uuid.Nil || input.Customer.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer identity is required")
	}
	if !input.DeliveryMode.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown delivery mode %q", input.DeliveryMode)
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	if input.DeliveryMode == enums.DeliveryModeHomeDelivery &&
		(input.Customer.Address == nil || *input.Customer.Address == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required for home delivery")
	}
	return nil
}

func (s *service) runCheckout(ctx context.Context, input Input) (*models.Order, error) {
	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		agency, err := s.agencies.WithTx(tx).GetAgency(ctx, input.AgencyID)
		if err != nil {
			return err
		}
		if !agency.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "agency is not accepting orders")
		}

		quote, err := s.pricing.Price(ctx, tx, agency.ID, input.Items)
		if err != nil {
			return err
		}

		deliveryCharge := decimal.Zero
		var deliveryDistance *decimal.Decimal
		if input.DeliveryMode == enums.DeliveryModeHomeDelivery {
			charge, err := s.delivery.Quote(ctx, tx, agency, *input.Customer.Address)
			if err != nil {
				return err
			}
			deliveryCharge = charge.Amount
			if charge.DistanceKm != nil {
				d := decimal.NewFromFloat(*charge.DistanceKm).Round(2)
				deliveryDistance = &d
			}
		}

		couponDiscount := decimal.Zero
		var couponCode *string
		if input.CouponCode != nil && *input.CouponCode != "" {
			eval, err := s.coupons.Evaluate(ctx, tx, agency.ID, *input.CouponCode, quote.Subtotal)
			if err != nil {
				return err
			}
			couponDiscount = eval.Discount
			couponCode = &eval.Code
		}

		reservations := make([]inventory.Reservation, 0, len(quote.Items))
		for _, item := range quote.Items {
			reservations = append(reservations, inventory.Reservation{
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			})
		}
		if err := s.inventory.Reserve(ctx, tx, reservations); err != nil {
			return err
		}

		number, err := orders.NewOrderNumber(s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocating order number")
		}

		taxValue := decimal.Zero
		if quote.TaxValue != nil {
			taxValue = *quote.TaxValue
		}
		order := &models.Order{
			OrderNumber:      number,
			AgencyID:         agency.ID,
			CustomerID:       input.Customer.ID,
			CustomerName:     input.Customer.Name,
			CustomerEmail:    input.Customer.Email,
			CustomerPhone:    input.Customer.Phone,
			CustomerAddress:  input.Customer.Address,
			DeliveryMode:     input.DeliveryMode,
			Subtotal:         quote.Subtotal,
			TaxType:          quote.TaxType,
			TaxValue:         taxValue,
			TaxAmount:        quote.TaxAmount,
			PlatformCharge:   quote.PlatformCharge,
			DeliveryCharge:   deliveryCharge,
			DeliveryDistance: deliveryDistance,
			CouponCode:       couponCode,
			CouponDiscount:   couponDiscount,
			TotalAmount:      pricing.Total(quote.Subtotal, quote.TaxAmount, quote.PlatformCharge, deliveryCharge, couponDiscount),
			Status:           enums.OrderStatusPending,
			PaymentStatus:    enums.PaymentStatusUnpaid,
		}

		repo := s.orderRepo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return err
		}

		items := make([]models.OrderItem, 0, len(quote.Items))
		for _, line := range quote.Items {
			items = append(items, models.OrderItem{
				OrderID:       order.ID,
				ProductID:     line.ProductID,
				VariantID:     line.VariantID,
				ProductName:   line.ProductName,
				VariantLabel:  line.VariantLabel,
				UnitPrice:     line.UnitPrice,
				Quantity:      line.Quantity,
				ProductAmount: line.ProductAmount,
				TaxShare:      line.TaxShare,
				PlatformShare: line.PlatformShare,
				ItemTotal:     line.ItemTotal,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return err
		}
		order.Items = items

		actorID := input.Customer.ID
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor: &outbox.ActorRef{
				Role: string(enums.ActorRoleCustomer),
				ID:   actorID.String(),
				Name: input.Customer.Name,
			},
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				AgencyID:    order.AgencyID,
				CustomerID:  order.CustomerID,
				TotalAmount: order.TotalAmount,
				ItemCount:   len(items),
				Mode:        order.DeliveryMode,
				Status:      order.Status,
				CouponCode:  order.CouponCode,
				PaymentDue:  order.PaymentStatus,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing order created event")
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func isOrderNumberCollision(err error) bool {
	if err == nil {
		return false
	}
	// Coded engine errors are never driver-level unique violations.
	if pkgerrors.As(err) != nil {
		return false
	}
	return db.IsUniqueViolation(err, "ux_orders_order_number")
}
