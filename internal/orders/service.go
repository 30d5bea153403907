package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gaslinkhq/gaslink-backend/internal/agencies"
	"github.com/gaslinkhq/gaslink-backend/internal/inventory"
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

// inventoryReleaser returns reserved stock when an order is cancelled or
// returned.
type inventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, reservations []inventory.Reservation) error
}

// TransitionInput carries everything a lifecycle transition may need.
type TransitionInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	Actor   Actor
	Reason  *string

	// Target-specific fields.
	AgentID          *uuid.UUID // assigned
	DeliveryCode     string     // delivered (home delivery)
	DeliveryProofRef *string    // delivered
	DeliveryNote     *string    // delivered
	PaymentReceived  bool       // delivered
}

// DeliveryCode is an issued one-time code for handover confirmation.
type DeliveryCode struct {
	Code      string
	ExpiresAt time.Time
}

// Service runs the order lifecycle. Every transition locks the order row,
// validates the edge, applies its side effects, and emits a status-changed
// event on the same transaction.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, string, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	IssueDeliveryCode(ctx context.Context, orderID uuid.UUID, actor Actor) (*DeliveryCode, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	inventory inventoryReleaser
	agencies  agencies.Repository
	metrics   *metrics.EngineMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires the order state machine with its collaborators.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, releaser inventoryReleaser, agencyRepo agencies.Repository, engineMetrics *metrics.EngineMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if releaser == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	if agencyRepo == nil {
		return nil, fmt.Errorf("agency repository required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    ob,
		inventory: releaser,
		agencies:  agencyRepo,
		metrics:   engineMetrics,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, string, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", input.Target)
	}
	if !input.Actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor role is required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}

		if input.Actor.Role == enums.ActorRoleCustomer {
			if input.Actor.ID == nil || *input.Actor.ID != order.CustomerID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "customers may only act on their own orders")
			}
		}

		if err := s.checkEdge(order, input.Target); err != nil {
			return err
		}

		updates, err := s.applyTarget(ctx, tx, order, input)
		if err != nil {
			return err
		}

		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:      order.ID,
				OrderNumber:  order.OrderNumber,
				AgencyID:     order.AgencyID,
				FromStatus:   order.Status,
				ToStatus:     input.Target,
				ActorRole:    input.Actor.Role,
				ActorID:      input.Actor.ID,
				Reason:       input.Reason,
				TransitionAt: s.now(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing status changed event")
		}

		s.metrics.IncTransition(order.Status.String(), input.Target.String())
		result, err = repo.GetByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id": input.OrderID.String(),
			"status":   input.Target.String(),
			"actor":    string(input.Actor.Role),
		}), "order transitioned")
	}
	return result, nil
}

// checkEdge enforces the lifecycle graph. Cancellation is reachable from any
// non-delivered, non-terminal status; returns only follow delivery; pickup
// orders hand over at the counter and skip the courier states.
func (s *service) checkEdge(order *models.Order, target enums.OrderStatus) error {
	from := order.Status
	reject := func() error {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict,
			"cannot transition order from %s to %s", from, target).
			WithDetails(map[string]any{"from": from, "to": target})
	}

	switch target {
	case enums.OrderStatusCancelled:
		if from == enums.OrderStatusDelivered || from.IsTerminal() {
			return reject()
		}
		return nil
	case enums.OrderStatusReturned:
		if from != enums.OrderStatusDelivered {
			return reject()
		}
		return nil
	case enums.OrderStatusConfirmed:
		if from != enums.OrderStatusPending {
			return reject()
		}
		return nil
	case enums.OrderStatusAssigned:
		if order.DeliveryMode == enums.DeliveryModePickup {
			return reject()
		}
		if from != enums.OrderStatusPending && from != enums.OrderStatusConfirmed {
			return reject()
		}
		return nil
	case enums.OrderStatusOutForDelivery:
		if order.DeliveryMode == enums.DeliveryModePickup || from != enums.OrderStatusAssigned {
			return reject()
		}
		return nil
	case enums.OrderStatusDelivered:
		if order.DeliveryMode == enums.DeliveryModePickup {
			// Counter handover works from any pre-delivery state.
			if from == enums.OrderStatusDelivered || from.IsTerminal() {
				return reject()
			}
			return nil
		}
		if from != enums.OrderStatusOutForDelivery {
			return reject()
		}
		return nil
	default:
		return reject()
	}
}

// applyTarget produces the column updates for the validated transition and
// runs its side effects on the transaction.
func (s *service) applyTarget(ctx context.Context, tx *gorm.DB, order *models.Order, input TransitionInput) (map[string]any, error) {
	now := s.now()
	updates := map[string]any{
		"status":     input.Target,
		"updated_at": now,
	}

	switch input.Target {
	case enums.OrderStatusConfirmed:
		updates["confirmed_at"] = now

	case enums.OrderStatusAssigned:
		if input.AgentID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id is required for assignment")
		}
		if _, err := s.agencies.WithTx(tx).GetActiveAgent(ctx, order.AgencyID, *input.AgentID); err != nil {
			return nil, err
		}
		updates["assigned_agent_id"] = *input.AgentID
		updates["assigned_at"] = now

	case enums.OrderStatusOutForDelivery:
		updates["out_for_delivery_at"] = now

	case enums.OrderStatusDelivered:
		if order.DeliveryMode == enums.DeliveryModeHomeDelivery {
			if err := s.verifyDeliveryCode(order, input.DeliveryCode); err != nil {
				return nil, err
			}
			// Single use: the code dies with the transition.
			updates["delivery_otp"] = nil
			updates["delivery_otp_expiry"] = nil
		}
		updates["delivered_at"] = now
		updates["payment_received"] = input.PaymentReceived
		if input.PaymentReceived {
			updates["payment_status"] = enums.PaymentStatusPaid
		}
		if input.DeliveryProofRef != nil {
			updates["delivery_proof_ref"] = *input.DeliveryProofRef
		}
		if input.DeliveryNote != nil {
			updates["delivery_note"] = *input.DeliveryNote
		}

	case enums.OrderStatusCancelled, enums.OrderStatusReturned:
		column := "cancelled_at"
		if input.Target == enums.OrderStatusReturned {
			column = "returned_at"
		}
		updates[column] = now
		updates["action_by_role"] = input.Actor.Role
		updates["action_by_name"] = input.Actor.Name
		if input.Actor.ID != nil {
			updates["action_by_id"] = *input.Actor.ID
		}
		if input.Reason != nil {
			updates["action_reason"] = *input.Reason
		}

		reservations := make([]inventory.Reservation, 0, len(order.Items))
		for _, item := range order.Items {
			reservations = append(reservations, inventory.Reservation{
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
			})
		}
		if len(reservations) > 0 {
			if err := s.inventory.Release(ctx, tx, reservations); err != nil {
				return nil, err
			}
		}
	}

	return updates, nil
}

func (s *service) verifyDeliveryCode(order *models.Order, code string) error {
	fail := func() error {
		s.metrics.IncOTPVerification("failure")
		return pkgerrors.New(pkgerrors.CodeOTPInvalidExpired, "delivery code is invalid or expired")
	}
	if order.DeliveryOTP == nil || order.DeliveryOTPExpiry == nil {
		return fail()
	}
	if code == "" || code != *order.DeliveryOTP {
		return fail()
	}
	if s.now().After(*order.DeliveryOTPExpiry) {
		return fail()
	}
	s.metrics.IncOTPVerification("success")
	return nil
}

// IssueDeliveryCode creates (or re-issues) the handover code for an assigned
// or out-for-delivery order. Issuing against an assigned order moves it to
// out_for_delivery on the same transaction; re-issuing replaces the previous
// code.
func (s *service) IssueDeliveryCode(ctx context.Context, orderID uuid.UUID, actor Actor) (*DeliveryCode, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor role is required")
	}

	var issued *DeliveryCode
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		issuable := order.Status == enums.OrderStatusAssigned || order.Status == enums.OrderStatusOutForDelivery
		if order.DeliveryMode != enums.DeliveryModeHomeDelivery || !issuable {
			return pkgerrors.Newf(pkgerrors.CodeOTPNotIssuable,
				"delivery code can only be issued for assigned or out-for-delivery home deliveries, order is %s", order.Status).
				WithDetails(map[string]any{"status": order.Status, "mode": order.DeliveryMode})
		}

		code, err := newDeliveryCode()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issuing delivery code")
		}
		now := s.now()
		expiry := now.Add(deliveryCodeTTL)
		updates := map[string]any{
			"delivery_otp":        code,
			"delivery_otp_expiry": expiry,
			"updated_at":          now,
		}
		if order.Status == enums.OrderStatusAssigned {
			updates["status"] = enums.OrderStatusOutForDelivery
			updates["out_for_delivery_at"] = now
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return err
		}
		if order.Status == enums.OrderStatusAssigned {
			event := outbox.DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actor.Ref(),
				Data: payloads.OrderStatusChangedEvent{
					OrderID:      order.ID,
					OrderNumber:  order.OrderNumber,
					AgencyID:     order.AgencyID,
					FromStatus:   enums.OrderStatusAssigned,
					ToStatus:     enums.OrderStatusOutForDelivery,
					ActorRole:    actor.Role,
					ActorID:      actor.ID,
					TransitionAt: now,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing status changed event")
			}
			s.metrics.IncTransition(enums.OrderStatusAssigned.String(), enums.OrderStatusOutForDelivery.String())
		}
		issued = &DeliveryCode{Code: code, ExpiresAt: expiry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "delivery code issued")
	}
	return issued, nil
}
