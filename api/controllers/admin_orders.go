package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/api/validators"
	"github.com/baladyapp/balady-backend/internal/orders"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/logger"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

type changeOrderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// AdminListOrders returns every order, optionally filtered by status.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var status *enums.OrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
				return
			}
			status = &parsed
		}

		list, err := svc.ListAll(ctx, status, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, paginate(list, params,
			func(o models.Order) pagination.Cursor {
				return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
			},
			func(o models.Order) orderResponse { return toOrderResponse(&o) },
		))
	}
}

func AdminChangeOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload changeOrderStatusPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		to, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.ChangeStatus(ctx, orderID, to)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logCtx := logg.WithField(logg.WithOrderID(ctx, order.ID.String()), "status", string(order.Status))
		logg.Info(logCtx, "order.status_changed")
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}
