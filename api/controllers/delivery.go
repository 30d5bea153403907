package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gaslinkhq/gaslink-backend/api/responses"
	"github.com/gaslinkhq/gaslink-backend/api/validators"
	"github.com/gaslinkhq/gaslink-backend/internal/agencies"
	deliverysvc "github.com/gaslinkhq/gaslink-backend/internal/delivery"
	"github.com/gaslinkhq/gaslink-backend/pkg/logger"
)

// EstimateDelivery prices home delivery to an address before checkout.
// Estimates are served through the quote cache.
func EstimateDelivery(svc deliverysvc.Service, agencyRepo agencies.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload deliveryEstimateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agency, err := agencyRepo.GetAgency(r.Context(), payload.AgencyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		charge, err := svc.Estimate(r.Context(), agency, payload.Address)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, deliveryEstimateResponse{
			Charge:     charge.Amount,
			DistanceKm: charge.DistanceKm,
		})
	}
}

type deliveryEstimateRequest struct {
	AgencyID uuid.UUID `json:"agency_id" validate:"required"`
	Address  string    `json:"address" validate:"required,min=5,max=500"`
}

type deliveryEstimateResponse struct {
	Charge     decimal.Decimal `json:"charge"`
	DistanceKm *float64        `json:"distance_km,omitempty"`
}
