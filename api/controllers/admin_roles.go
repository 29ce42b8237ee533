package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/api/validators"
	"github.com/baladyapp/balady-backend/internal/rbac"
	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
	"github.com/baladyapp/balady-backend/pkg/logger"
)

type rolePayload struct {
	Name        string   `json:"name" validate:"required"`
	Permissions []string `json:"permissions" validate:"required"`
}

type assignRolePayload struct {
	// RoleID nil strips the user's role.
	RoleID *string `json:"role_id" validate:"omitempty,uuid"`
}

func (p rolePayload) toInput() (rbac.RoleInput, error) {
	perms := make([]enums.Permission, 0, len(p.Permissions))
	for _, raw := range p.Permissions {
		perm, err := enums.ParsePermission(raw)
		if err != nil {
			return rbac.RoleInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid permission")
		}
		perms = append(perms, perm)
	}
	return rbac.RoleInput{Name: p.Name, Permissions: perms}, nil
}

func AdminListRoles(svc rbac.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		roles, err := svc.ListRoles(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		out := make([]roleResponse, 0, len(roles))
		for i := range roles {
			out = append(out, toRoleResponse(&roles[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminCreateRole(svc rbac.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload rolePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		role, err := svc.CreateRole(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toRoleResponse(role))
	}
}

func AdminGetRole(svc rbac.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		roleID, err := validators.PathUUID(chi.URLParam(r, "roleId"), "roleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		role, err := svc.GetRole(ctx, roleID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRoleResponse(role))
	}
}

func AdminUpdateRole(svc rbac.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		roleID, err := validators.PathUUID(chi.URLParam(r, "roleId"), "roleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload rolePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		role, err := svc.UpdateRole(ctx, roleID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toRoleResponse(role))
	}
}

func AdminDeleteRole(svc rbac.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		roleID, err := validators.PathUUID(chi.URLParam(r, "roleId"), "roleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.DeleteRole(ctx, roleID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminAssignRole(svc rbac.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := validators.PathUUID(chi.URLParam(r, "userId"), "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload assignRolePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var roleID *uuid.UUID
		if payload.RoleID != nil {
			parsed, err := validators.PathUUID(*payload.RoleID, "role_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			roleID = &parsed
		}

		if err := svc.AssignRole(ctx, userID, roleID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logg.Info(logg.WithUserID(ctx, userID.String()), "rbac.role_assigned")
		responses.WriteSuccess(w, map[string]string{"status": "assigned"})
	}
}
