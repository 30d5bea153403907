package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gaslinkhq/gaslink-backend/api/middleware"
	"github.com/gaslinkhq/gaslink-backend/api/responses"
	"github.com/gaslinkhq/gaslink-backend/api/validators"
	checkoutsvc "github.com/gaslinkhq/gaslink-backend/internal/checkout"
	"github.com/gaslinkhq/gaslink-backend/internal/pricing"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
	"github.com/gaslinkhq/gaslink-backend/pkg/logger"
)

// Checkout submits the authenticated customer's cart for an agency and
// returns the created pending order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		if actor.Role != enums.ActorRoleCustomer || actor.ID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "customer account required for checkout"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mode, err := enums.ParseDeliveryMode(payload.DeliveryMode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery mode"))
			return
		}

		items := make([]pricing.QuoteItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, pricing.QuoteItem{
				ProductID:        item.ProductID,
				VariantLabel:     item.VariantLabel,
				Quantity:         item.Quantity,
				ClaimedUnitPrice: item.UnitPrice,
			})
		}

		order, err := svc.Checkout(r.Context(), checkoutsvc.Input{
			AgencyID: payload.AgencyID,
			Customer: checkoutsvc.Customer{
				ID:      *actor.ID,
				Name:    actor.Name,
				Email:   payload.Customer.Email,
				Phone:   payload.Customer.Phone,
				Address: payload.Customer.Address,
			},
			DeliveryMode: mode,
			Items:        items,
			CouponCode:   payload.CouponCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type checkoutRequest struct {
	AgencyID     uuid.UUID          `json:"agency_id" validate:"required"`
	DeliveryMode string             `json:"delivery_mode" validate:"required"`
	Customer     checkoutCustomer   `json:"customer" validate:"required"`
	Items        []checkoutLineItem `json:"items" validate:"required,min=1,dive"`
	CouponCode   *string            `json:"coupon_code,omitempty" validate:"omitempty,max=50"`
}

type checkoutCustomer struct {
	Email   string  `json:"email" validate:"required,email"`
	Phone   string  `json:"phone" validate:"required,min=7,max=20"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

type checkoutLineItem struct {
	ProductID    uuid.UUID       `json:"product_id" validate:"required"`
	VariantLabel string          `json:"variant_label" validate:"required"`
	Quantity     int             `json:"quantity" validate:"required,min=1"`
	UnitPrice    decimal.Decimal `json:"unit_price" validate:"required"`
}
