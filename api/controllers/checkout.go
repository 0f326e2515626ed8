package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stagepass-live/boxoffice-backend/api/responses"
	"github.com/stagepass-live/boxoffice-backend/api/validators"
	"github.com/stagepass-live/boxoffice-backend/internal/orders"
	pkgerrors "github.com/stagepass-live/boxoffice-backend/pkg/errors"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
)

// OrderService is the order surface the public controllers consume.
type OrderService interface {
	Checkout(ctx context.Context, req orders.CheckoutRequest) (*orders.CheckoutResult, error)
	Availability(ctx context.Context, showID string) (map[string]int, error)
}

// Checkout creates a pending order and returns the gateway payment URL.
func Checkout(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload orders.CheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Checkout(ctx, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithOrderID(ctx, result.OrderID), "checkout session created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ShowAvailability reports the paid quantity per event for one show. The
// storefront subtracts these from its capacity table.
func ShowAvailability(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		showID := chi.URLParam(r, "showID")
		if showID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "show id is required"))
			return
		}

		totals, err := svc.Availability(ctx, showID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"show_id": showID, "paid_quantities": totals})
	}
}
