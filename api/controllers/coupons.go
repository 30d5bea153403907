package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gaslinkhq/gaslink-backend/api/responses"
	"github.com/gaslinkhq/gaslink-backend/api/validators"
	couponsvc "github.com/gaslinkhq/gaslink-backend/internal/coupons"
	"github.com/gaslinkhq/gaslink-backend/pkg/logger"
)

// PreviewCoupon evaluates a coupon against a prospective order amount without
// creating an order. Checkout re-evaluates inside its own transaction, so a
// preview never reserves the discount.
func PreviewCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload couponPreviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eval, err := svc.Evaluate(r.Context(), nil, payload.AgencyID, payload.Code, payload.OrderAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, couponPreviewResponse{
			Code:     eval.Code,
			Discount: eval.Discount,
		})
	}
}

type couponPreviewRequest struct {
	AgencyID    uuid.UUID       `json:"agency_id" validate:"required"`
	Code        string          `json:"code" validate:"required,max=50"`
	OrderAmount decimal.Decimal `json:"order_amount" validate:"required"`
}

type couponPreviewResponse struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}
