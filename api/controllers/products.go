package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/api/validators"
	"github.com/baladyapp/balady-backend/internal/products"
	"github.com/baladyapp/balady-backend/internal/reviews"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/logger"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

// ProductsList serves the public catalog: active products only.
func ProductsList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filter := products.ListFilter{
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
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
			func(p models.Product) productResponse { return toProductResponse(&p) },
		))
	}
}

func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, toProductResponse(product))
	}
}

// ProductReviews lists the approved reviews of a product.
func ProductReviews(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.ListApproved(ctx, id, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, paginate(list, params,
			func(review models.Review) pagination.Cursor {
				return pagination.Cursor{CreatedAt: review.CreatedAt, ID: review.ID}
			},
			func(review models.Review) reviewResponse { return toReviewResponse(&review) },
		))
	}
}
