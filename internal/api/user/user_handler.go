package user

import (
	"errors"
	"log/slog"
	"net/http"

	appMiddleware "github.com/FACorreiaa/sidara-archive/app/middleware"
	"github.com/FACorreiaa/sidara-archive/internal/api"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers godoc
// @Summary      List users
// @Description  Returns every account newest first. Admin only.
// @Tags         Users
// @Produce      json
// @Success      200 {array} types.User
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Admin access required"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /users [get]
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "ListUsers"))

	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, users)
}

// CreateUser godoc
// @Summary      Create user
// @Description  Creates an active account. Admin only.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        user body types.CreateUserParams true "New account"
// @Success      201 {object} types.CreatedResponse
// @Failure      400 {object} types.Response "Invalid input or username already exists"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Admin access required"
// @Security     BearerAuth
// @Router       /users [post]
func (h *HandlerImpl) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateUser"))

	var params types.CreateUserParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.userService.CreateUser(ctx, params)
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, types.CreatedResponse{
		Success: true,
		Message: "User created successfully",
		ID:      id,
	})
}

// UpdateUser godoc
// @Summary      Update user
// @Description  Overwrites username, name, email, role and status. Admin only.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id   path string                 true "User ID"
// @Param        user body types.UpdateUserParams true "Account fields"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Invalid input or username already exists"
// @Failure      403 {object} types.Response "Admin access required"
// @Failure      404 {object} types.Response "User not found"
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *HandlerImpl) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateUser"))

	id, err := api.URLParamUUID(r, "id")
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}

	var params types.UpdateUserParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.UpdateUser(ctx, id, params); err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "User updated successfully",
	})
}

// DeleteUser godoc
// @Summary      Delete user
// @Description  Deletes an account other than the caller's own. Admin only.
// @Tags         Users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Cannot delete your own account"
// @Failure      403 {object} types.Response "Admin access required"
// @Failure      404 {object} types.Response "User not found"
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DeleteUser"))

	caller, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := api.URLParamUUID(r, "id")
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}

	if err := h.userService.DeleteUser(ctx, caller, id); err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "User deleted successfully",
	})
}

// GetProfile godoc
// @Summary      Get own profile
// @Tags         Profile
// @Produce      json
// @Success      200 {object} types.User
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "User not found"
// @Security     BearerAuth
// @Router       /profile [get]
func (h *HandlerImpl) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetProfile"))

	identity, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "Identity not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.userService.GetProfile(ctx, identity)
	if err != nil {
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary      Update own profile
// @Description  Changes name and email; changing the password requires the current one.
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Param        profile body types.UpdateProfileParams true "Profile fields"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Invalid input"
// @Failure      401 {object} types.Response "Unauthorized or current password incorrect"
// @Security     BearerAuth
// @Router       /profile [put]
func (h *HandlerImpl) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateProfile"))

	identity, ok := appMiddleware.IdentityFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "Identity not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.UpdateProfile(ctx, identity, params); err != nil {
		if errors.Is(err, types.ErrInvalidCredentials) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Current password is incorrect")
			return
		}
		api.WriteServiceError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Profile updated successfully",
	})
}
