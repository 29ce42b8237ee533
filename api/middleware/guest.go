package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/internal/identity"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/logger"
)

const guestTokenHeader = "X-Guest-Token"

// GuestSession resolves the X-Guest-Token header into a Guest row. A request
// without the header and without an authenticated user gets a fresh guest id,
// echoed back so the client can persist it.
func GuestSession(identitySvc identity.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Authenticated users never carry a guest session.
			if UserIDFromContext(r.Context()) != uuid.Nil {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimSpace(r.Header.Get(guestTokenHeader))
			guestID := uuid.Nil
			if raw != "" {
				parsed, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "guest token must be a uuid"))
					return
				}
				guestID = parsed
			} else {
				guestID = uuid.New()
			}

			guest, err := identitySvc.EnsureGuest(r.Context(), guestID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			w.Header().Set(guestTokenHeader, guest.ID.String())

			ctx := WithGuestID(r.Context(), guest.ID)
			if logg != nil {
				ctx = logg.WithGuestID(ctx, guest.ID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
