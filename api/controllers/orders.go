package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gaslinkhq/gaslink-backend/api/middleware"
	"github.com/gaslinkhq/gaslink-backend/api/responses"
	"github.com/gaslinkhq/gaslink-backend/api/validators"
	ordersvc "github.com/gaslinkhq/gaslink-backend/internal/orders"
	"github.com/gaslinkhq/gaslink-backend/pkg/db/models"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	pkgerrors "github.com/gaslinkhq/gaslink-backend/pkg/errors"
	"github.com/gaslinkhq/gaslink-backend/pkg/logger"
	"github.com/gaslinkhq/gaslink-backend/pkg/pagination"
)

// ListOrders returns a keyset-paginated page of orders scoped to the caller:
// customers see their own orders, agency owners see their agency's.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := ordersvc.ListFilter{
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: validators.ParseQueryString(r, "cursor"),
			},
		}

		if raw := validators.ParseQueryString(r, "status"); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = &status
		}

		actor := middleware.ActorFromContext(r.Context())
		switch actor.Role {
		case enums.ActorRoleCustomer:
			filter.CustomerID = actor.ID
		case enums.ActorRoleAgencyOwner:
			agencyID := middleware.AgencyIDFromContext(r.Context())
			if agencyID == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "token is not bound to an agency"))
				return
			}
			filter.AgencyID = agencyID
		default:
			// Admins filter freely.
			if filter.AgencyID, err = validators.ParseQueryUUID(r, "agency_id"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if filter.CustomerID, err = validators.ParseQueryUUID(r, "customer_id"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		orders, nextCursor, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(orders))
		for i := range orders {
			items = append(items, newOrderResponse(&orders[i]))
		}

		responses.WriteSuccess(w, orderListResponse{
			Orders:     items,
			NextCursor: nextCursor,
		})
	}
}

func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := authorizeOrderAccess(r, order); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// TransitionOrder moves an order along its lifecycle on behalf of the
// authenticated actor.
func TransitionOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		order, err := svc.Transition(r.Context(), ordersvc.TransitionInput{
			OrderID:          id,
			Target:           target,
			Actor:            middleware.ActorFromContext(r.Context()),
			Reason:           payload.Reason,
			AgentID:          payload.AgentID,
			DeliveryCode:     payload.DeliveryCode,
			DeliveryProofRef: payload.DeliveryProofRef,
			DeliveryNote:     payload.DeliveryNote,
			PaymentReceived:  payload.PaymentReceived,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// IssueDeliveryCode generates a fresh handover code for an order that is out
// for delivery.
func IssueDeliveryCode(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.IssueDeliveryCode(r.Context(), id, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, deliveryCodeResponse{
			Code:      code.Code,
			ExpiresAt: code.ExpiresAt,
		})
	}
}

// VerifyDeliveryCode confirms the handover code and completes the delivery.
// It is the delivered transition with the code taken from the request body.
func VerifyDeliveryCode(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyDeliveryCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Transition(r.Context(), ordersvc.TransitionInput{
			OrderID:          id,
			Target:           enums.OrderStatusDelivered,
			Actor:            middleware.ActorFromContext(r.Context()),
			DeliveryCode:     payload.Code,
			DeliveryProofRef: payload.DeliveryProofRef,
			DeliveryNote:     payload.DeliveryNote,
			PaymentReceived:  payload.PaymentReceived,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// authorizeOrderAccess keeps customers and agency owners inside their own
// orders; admins pass through.
func authorizeOrderAccess(r *http.Request, order *models.Order) error {
	actor := middleware.ActorFromContext(r.Context())
	switch actor.Role {
	case enums.ActorRoleCustomer:
		if actor.ID == nil || order.CustomerID != *actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
	case enums.ActorRoleAgencyOwner:
		agencyID := middleware.AgencyIDFromContext(r.Context())
		if agencyID == nil || order.AgencyID != *agencyID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another agency")
		}
	}
	return nil
}

type transitionRequest struct {
	Target           string     `json:"target" validate:"required"`
	Reason           *string    `json:"reason,omitempty" validate:"omitempty,max=500"`
	AgentID          *uuid.UUID `json:"agent_id,omitempty"`
	DeliveryCode     string     `json:"delivery_code,omitempty" validate:"omitempty,len=6,numeric"`
	DeliveryProofRef *string    `json:"delivery_proof_ref,omitempty"`
	DeliveryNote     *string    `json:"delivery_note,omitempty" validate:"omitempty,max=500"`
	PaymentReceived  bool       `json:"payment_received,omitempty"`
}

type verifyDeliveryCodeRequest struct {
	Code             string  `json:"code" validate:"required,len=6,numeric"`
	DeliveryProofRef *string `json:"delivery_proof_ref,omitempty"`
	DeliveryNote     *string `json:"delivery_note,omitempty" validate:"omitempty,max=500"`
	PaymentReceived  bool    `json:"payment_received,omitempty"`
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type deliveryCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type orderResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	AgencyID    uuid.UUID `json:"agency_id"`

	CustomerID      uuid.UUID `json:"customer_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerAddress *string   `json:"customer_address,omitempty"`

	DeliveryMode string `json:"delivery_mode"`

	Subtotal         decimal.Decimal  `json:"subtotal"`
	TaxAmount        decimal.Decimal  `json:"tax_amount"`
	PlatformCharge   decimal.Decimal  `json:"platform_charge"`
	DeliveryCharge   decimal.Decimal  `json:"delivery_charge"`
	DeliveryDistance *decimal.Decimal `json:"delivery_distance_km,omitempty"`
	CouponCode       *string          `json:"coupon_code,omitempty"`
	CouponDiscount   decimal.Decimal  `json:"coupon_discount"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	AssignedAgentID *uuid.UUID `json:"assigned_agent_id,omitempty"`

	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty"`
	OutForDeliveryAt *time.Time `json:"out_for_delivery_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	ReturnedAt       *time.Time `json:"returned_at,omitempty"`

	ActionByRole *string `json:"action_by_role,omitempty"`
	ActionByName *string `json:"action_by_name,omitempty"`
	ActionReason *string `json:"action_reason,omitempty"`

	Items []orderItemResponse `json:"items"`

	CreatedAt time.Time `json:"created_at"`
}

type orderItemResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	VariantLabel  string          `json:"variant_label"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	ProductAmount decimal.Decimal `json:"product_amount"`
	TaxShare      decimal.Decimal `json:"tax_share"`
	PlatformShare decimal.Decimal `json:"platform_share"`
	ItemTotal     decimal.Decimal `json:"item_total"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}

	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			VariantLabel:  item.VariantLabel,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			ProductAmount: item.ProductAmount,
			TaxShare:      item.TaxShare,
			PlatformShare: item.PlatformShare,
			ItemTotal:     item.ItemTotal,
		})
	}

	var actionRole *string
	if order.ActionByRole != nil {
		role := string(*order.ActionByRole)
		actionRole = &role
	}

	return orderResponse{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		AgencyID:         order.AgencyID,
		CustomerID:       order.CustomerID,
		CustomerName:     order.CustomerName,
		CustomerAddress:  order.CustomerAddress,
		DeliveryMode:     string(order.DeliveryMode),
		Subtotal:         order.Subtotal,
		TaxAmount:        order.TaxAmount,
		PlatformCharge:   order.PlatformCharge,
		DeliveryCharge:   order.DeliveryCharge,
		DeliveryDistance: order.DeliveryDistance,
		CouponCode:       order.CouponCode,
		CouponDiscount:   order.CouponDiscount,
		TotalAmount:      order.TotalAmount,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		AssignedAgentID:  order.AssignedAgentID,
		ConfirmedAt:      order.ConfirmedAt,
		AssignedAt:       order.AssignedAt,
		OutForDeliveryAt: order.OutForDeliveryAt,
		DeliveredAt:      order.DeliveredAt,
		CancelledAt:      order.CancelledAt,
		ReturnedAt:       order.ReturnedAt,
		ActionByRole:     actionRole,
		ActionByName:     order.ActionByName,
		ActionReason:     order.ActionReason,
		Items:            items,
		CreatedAt:        order.CreatedAt,
	}
}
