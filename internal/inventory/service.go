package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
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

// Reservation asks for qty units of a specific variant.
type Reservation struct {
	VariantID uuid.UUID
	Quantity  int
}

// Service guards the stock ledger. All mutations run on the caller's
// transaction so a checkout either reserves every line or none.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, reservations []Reservation) error
	Release(ctx context.Context, tx *gorm.DB, reservations []Reservation) error
}

type service struct {
	repo   Repository
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService wires the inventory service with its repository and event sink.
func NewService(repo Repository, ob outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, outbox: ob, logg: logg}, nil
}

// Reserve decrements stock for every reservation, aborting on the first line
// that cannot be covered. Partial decrements roll back with the enclosing
// transaction.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, reservations []Reservation) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for reservation")
	}
	if len(reservations) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one reservation is required")
	}
	repo := s.repo.WithTx(tx)

	for _, req := range reservations {
		if req.Quantity < 1 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid quantity %d for variant %s", req.Quantity, req.VariantID)
		}
		state, err := repo.DecrementStock(ctx, req.VariantID, req.Quantity)
		if errors.Is(err, ErrVariantMissing) {
			return pkgerrors.New(pkgerrors.CodeVariantNotFound, "variant is no longer available").
				WithDetails(map[string]any{"variant_id": req.VariantID})
		}
		if errors.Is(err, ErrStockExhausted) {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
				WithDetails(map[string]any{"variant_id": req.VariantID, "requested": req.Quantity})
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserving stock")
		}

		if err := s.signalLowStock(ctx, tx, state); err != nil {
			return err
		}
	}
	return nil
}

// signalLowStock emits the restock alert whenever post-operation stock sits
// at or below the configured threshold.
func (s *service) signalLowStock(ctx context.Context, tx *gorm.DB, state *StockState) error {
	if state == nil || state.Remaining > state.LowStockThreshold {
		return nil
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventInventoryLowStock,
		AggregateType: enums.AggregateInventory,
		AggregateID:   state.InventoryID,
		Data: payloads.LowStockEvent{
			InventoryID:  state.InventoryID,
			VariantID:    state.VariantID,
			AgencyID:     state.AgencyID,
			ProductID:    state.ProductID,
			VariantLabel: state.Label,
			Remaining:    state.Remaining,
			Threshold:    state.LowStockThreshold,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queueing low stock event")
	}
	if s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"variant_id": state.VariantID.String(),
			"remaining":  state.Remaining,
			"threshold":  state.LowStockThreshold,
		}), "variant stock at or below restock threshold")
	}
	return nil
}

// Release restores stock for previously reserved lines. A missing variant row
// is skipped rather than failed: the reservation it backed no longer holds
// stock anyone could oversell. Connectivity failures are aggregated so a
// partial release surfaces every broken line at once.
func (s *service) Release(ctx context.Context, tx *gorm.DB, reservations []Reservation) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for release")
	}
	repo := s.repo.WithTx(tx)

	var errs error
	for _, req := range reservations {
		if req.Quantity < 1 {
			continue
		}
		state, err := repo.IncrementStock(ctx, req.VariantID, req.Quantity)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("variant %s: %w", req.VariantID, err))
			continue
		}
		if state == nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"variant_id": req.VariantID.String(),
				}), "release skipped, variant row no longer exists")
			}
			continue
		}
		// A release can still leave the counter under the threshold.
		if err := s.signalLowStock(ctx, tx, state); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "releasing reserved stock")
	}
	return nil
}
