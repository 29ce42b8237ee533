package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/api/validators"
	"github.com/baladyapp/balady-backend/internal/reviews"
	"github.com/baladyapp/balady-backend/pkg/db/models"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/logger"
	"github.com/baladyapp/balady-backend/pkg/pagination"
)

type moderateReviewPayload struct {
	Status string `json:"status" validate:"required,oneof=approved hidden"`
}

func AdminListPendingReviews(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.ListPending(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, paginate(list, params,
			func(rev models.Review) pagination.Cursor {
				return pagination.Cursor{CreatedAt: rev.CreatedAt, ID: rev.ID}
			},
			func(rev models.Review) reviewResponse { return toReviewResponse(&rev) },
		))
	}
}

func AdminModerateReview(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		reviewID, err := validators.PathUUID(chi.URLParam(r, "reviewId"), "reviewId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload moderateReviewPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := enums.ParseReviewStatus(payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid review status"))
			return
		}

		review, err := svc.Moderate(ctx, reviewID, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toReviewResponse(review))
	}
}
