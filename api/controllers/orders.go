package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/baladyapp/balady-backend/api/middleware"
	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/api/validators"
	"github.com/baladyapp/balady-backend/internal/orders"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/logger"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

type orderItemPayload struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
}

type shippingAddressPayload struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	City      string `json:"city" validate:"required"`
	Region    string `json:"region" validate:"required"`
	Street    string `json:"street" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

type placeOrderPayload struct {
	Items []orderItemPayload `json:"items" validate:"required,min=1,dive"`

	// Guests identify themselves by phone and name. Authenticated users
	// leave these empty.
	Phone *string `json:"phone"`
	Name  *string `json:"name"`

	AddressID *string                 `json:"address_id" validate:"omitempty,uuid"`
	Address   *shippingAddressPayload `json:"address"`
}

// actorFromContext builds the order actor from whichever identity the
// middleware chain resolved.
func actorFromContext(r *http.Request) (orders.Actor, error) {
	ctx := r.Context()
	if userID := middleware.UserIDFromContext(ctx); userID != uuid.Nil {
		return orders.Actor{UserID: &userID}, nil
	}
	if guestID := middleware.GuestIDFromContext(ctx); guestID != uuid.Nil {
		return orders.Actor{GuestID: &guestID}, nil
	}
	return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
}

func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload placeOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := orders.PlaceOrderInput{
			Actor: actor,
			Phone: trimPtr(payload.Phone),
			Name:  trimPtr(payload.Name),
			Items: make([]orders.ItemInput, 0, len(payload.Items)),
		}
		for _, item := range payload.Items {
			productID, err := validators.PathUUID(item.ProductID, "product_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.Items = append(input.Items, orders.ItemInput{ProductID: productID, Quantity: item.Quantity})
		}
		if payload.AddressID != nil {
			addressID, err := validators.PathUUID(*payload.AddressID, "address_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.AddressID = &addressID
		}
		if payload.Address != nil {
			input.Address = &orders.ShippingAddressInput{
				FirstName: payload.Address.FirstName,
				LastName:  payload.Address.LastName,
				City:      payload.Address.City,
				Region:    payload.Address.Region,
				Street:    payload.Address.Street,
				Phone:     payload.Address.Phone,
			}
		}

		order, err := svc.PlaceOrder(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logg.Info(logg.WithOrderID(ctx, order.ID.String()), "order.placed")
		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderResponse(order))
	}
}

func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.ListOwn(ctx, actor, params)
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

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.GetOwnOrder(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.CancelOwnOrder(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logg.Info(logg.WithOrderID(ctx, order.ID.String()), "order.cancelled")
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
