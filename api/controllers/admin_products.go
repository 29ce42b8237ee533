package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/api/validators"
	"github.com/baladyapp/balady-backend/internal/products"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/logger"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

type createProductPayload struct {
	Name         string          `json:"name" validate:"required"`
	Description  *string         `json:"description"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SaleType     string          `json:"sale_type" validate:"required,oneof=piece kg"`
	InitialStock decimal.Decimal `json:"initial_stock"`
	ImageURL     *string         `json:"image_url"`
}

type updateProductPayload struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	ImageURL    *string          `json:"image_url"`
}

type adjustStockPayload struct {
	Change decimal.Decimal `json:"change" validate:"required"`
}

func AdminCreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload createProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		saleType, err := enums.ParseSaleType(payload.SaleType)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sale type"))
			return
		}

		product, err := svc.Create(ctx, products.CreateInput{
			Name:         payload.Name,
			Description:  payload.Description,
			Price:        payload.Price,
			CostPrice:    payload.CostPrice,
			SaleType:     saleType,
			InitialStock: payload.InitialStock,
			ImageURL:     payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toAdminProductResponse(product))
	}
}

func AdminUpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.Update(ctx, id, products.UpdateInput{
			Name:        payload.Name,
			Description: payload.Description,
			Price:       payload.Price,
			CostPrice:   payload.CostPrice,
			ImageURL:    payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAdminProductResponse(product))
	}
}

func AdminDeactivateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Deactivate(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

func AdminActivateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Activate(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "activated"})
	}
}

// AdminListProducts includes inactive products in the listing.
func AdminListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filter := products.ListFilter{
			Search:          strings.TrimSpace(r.URL.Query().Get("search")),
			IncludeInactive: true,
		}

		list, err := svc.List(ctx, filter, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, paginate(list, params,
			func(p models.Product) pagination.Cursor {
				return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
			},
			func(p models.Product) adminProductResponse { return toAdminProductResponse(&p) },
		))
	}
}

func AdminGetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		product, err := svc.GetAny(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAdminProductResponse(product))
	}
}

// AdminAdjustStock applies a signed stock correction through the ledger.
func AdminAdjustStock(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload adjustStockPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.AdjustStock(ctx, id, payload.Change)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAdminProductResponse(product))
	}
}

func AdminStockHistory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		history, err := svc.StockHistory(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStockTransactionResponses(history))
	}
}
