package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/api/validators"
	"github.com/baladyapp/balady-backend/internal/orders"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/logger"
)

// InvoiceByPhone is the public invoice lookup. The caller must present
// both the order id and the phone the order was placed with.
func InvoiceByPhone(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		phone := strings.TrimSpace(r.URL.Query().Get("phone"))
		if phone == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "phone query parameter is required"))
			return
		}

		order, err := svc.InvoiceByPhone(ctx, orderID, phone)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}
