package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baladyapp/balady-backend/api/middleware"
	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/api/validators"
	"github.com/baladyapp/balady-backend/internal/addresses"
	"github.com/baladyapp/balady-backend/pkg/logger"
)

type addressPayload struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	City      string `json:"city" validate:"required"`
	Region    string `json:"region" validate:"required"`
	Street    string `json:"street" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	IsDefault bool   `json:"is_default"`
}

func (p addressPayload) toInput() addresses.Input {
	return addresses.Input{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		City:      p.City,
		Region:    p.Region,
		Street:    p.Street,
		Phone:     p.Phone,
		IsDefault: p.IsDefault,
	}
}

func AddressesList(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		list, err := svc.List(ctx, middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAddressResponses(list))
	}
}

func AddressCreate(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload addressPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		address, err := svc.Create(ctx, middleware.UserIDFromContext(ctx), payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toAddressResponse(address))
	}
}

func AddressUpdate(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		addressID, err := validators.PathUUID(chi.URLParam(r, "addressId"), "addressId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload addressPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		address, err := svc.Update(ctx, middleware.UserIDFromContext(ctx), addressID, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAddressResponse(address))
	}
}

func AddressDelete(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		addressID, err := validators.PathUUID(chi.URLParam(r, "addressId"), "addressId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Delete(ctx, middleware.UserIDFromContext(ctx), addressID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AddressSetDefault(svc addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		addressID, err := validators.PathUUID(chi.URLParam(r, "addressId"), "addressId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		address, err := svc.SetDefault(ctx, middleware.UserIDFromContext(ctx), addressID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAddressResponse(address))
	}
}
