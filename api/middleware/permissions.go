package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/internal/rbac"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/logger"
)

// RequirePermission gates a route on the caller holding an admin permission.
// Runs after Auth, so an empty user id means a broken middleware chain.
func RequirePermission(rbacSvc rbac.Service, required enums.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if userID == uuid.Nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if err := rbacSvc.Check(r.Context(), userID, required); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
