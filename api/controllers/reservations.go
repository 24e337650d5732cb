package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleurly/fleurly-backend/api/responses"
	"github.com/fleurly/fleurly-backend/api/validators"
	"github.com/fleurly/fleurly-backend/internal/inventory"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
	"github.com/fleurly/fleurly-backend/pkg/logger"
)

func orderIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "orderID")
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

type createReservationsRequest struct {
	Items    []itemRequestPayload `json:"items" validate:"required,min=1,dive"`
	Validate *bool                `json:"validate,omitempty"`
}

// CreateReservations places all-or-nothing holds for an order.
func CreateReservations(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		orderID, err := orderIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createReservationsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requests, err := batchAvailabilityRequest{Items: payload.Items}.toRequests()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		validate := true
		if payload.Validate != nil {
			validate = *payload.Validate
		}

		if err := svc.CreateReservations(r.Context(), orderID, requests, validate); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reservations, err := svc.GetReservations(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, reservations)
	}
}

// GetReservations lists the active holds for an order.
func GetReservations(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		orderID, err := orderIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reservations, err := svc.GetReservations(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reservations)
	}
}

// ReleaseReservations frees an order's holds. Releasing an order with no holds
// succeeds with a zero count.
func ReleaseReservations(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		orderID, err := orderIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		released, err := svc.ReleaseReservations(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"released": released})
	}
}

// AssembleOrder converts an order's holds into committed stock deductions.
func AssembleOrder(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		orderID, err := orderIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ConvertReservationsToDeductions(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}
