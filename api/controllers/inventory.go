package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fleurly/fleurly-backend/api/responses"
	"github.com/fleurly/fleurly-backend/api/validators"
	"github.com/fleurly/fleurly-backend/internal/inventory"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
	"github.com/fleurly/fleurly-backend/pkg/logger"
	"github.com/fleurly/fleurly-backend/pkg/pagination"
)

// CheckAvailability answers whether a product can be fulfilled at the requested
// quantity, with the per-ingredient breakdown.
func CheckAvailability(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		rawID := strings.TrimSpace(r.URL.Query().Get("product_id"))
		productID, err := uuid.Parse(rawID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id"))
			return
		}

		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 1000000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckAvailability(r.Context(), productID, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type batchAvailabilityRequest struct {
	Items []itemRequestPayload `json:"items" validate:"required,min=1,dive"`
}

type itemRequestPayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

func (p batchAvailabilityRequest) toRequests() ([]inventory.ItemRequest, error) {
	requests := make([]inventory.ItemRequest, 0, len(p.Items))
	for _, item := range p.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id").
				WithDetails(map[string]string{"product_id": item.ProductID})
		}
		requests = append(requests, inventory.ItemRequest{ProductID: productID, Quantity: item.Quantity})
	}
	return requests, nil
}

// CheckBatchAvailability evaluates a whole order draft in one shot.
func CheckBatchAvailability(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload batchAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requests, err := payload.toRequests()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckBatchAvailability(r.Context(), requests)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// InventorySummary reports warehouse valuation and reservation totals.
func InventorySummary(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		summary, err := svc.GetInventorySummary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// ListWarehouseItems returns one cursor page of warehouse items.
func ListWarehouseItems(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: validators.SanitizeString(r.URL.Query().Get("cursor"), 512),
		}

		page, err := svc.ListWarehouseItems(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

type cleanupRequest struct {
	MaxAgeHours int  `json:"max_age_hours" validate:"omitempty,gt=0"`
	DryRun      bool `json:"dry_run"`
}

// CleanupReservations triggers the abandoned reservation sweep on demand; the
// cron worker runs the same operation on a schedule.
func CleanupReservations(svc inventory.Service, defaultMaxAgeHours int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		payload := cleanupRequest{MaxAgeHours: defaultMaxAgeHours}
		if r.Body != nil && r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if payload.MaxAgeHours == 0 {
				payload.MaxAgeHours = defaultMaxAgeHours
			}
		}

		stats, err := svc.CleanupExpiredReservations(r.Context(), payload.MaxAgeHours, payload.DryRun)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}
