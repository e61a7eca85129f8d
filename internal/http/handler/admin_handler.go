package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/threatlens/dashboard-api/internal/domain"
	"github.com/threatlens/dashboard-api/internal/service"
	"go.uber.org/zap"
)

// AdminHandler handles user administration
type AdminHandler struct {
	adminService *service.AdminService
	logger       *zap.Logger
}

func NewAdminHandler(adminService *service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, logger: logger}
}

// ListUsers godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Success 200 {array} domain.User
// @Failure 403 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// CreateUser godoc
// @Summary Create user
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body domain.CreateUserRequest true "User"
// @Success 201 {object} domain.User
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.adminService.CreateUser(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create user")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// UpdateUser godoc
// @Summary Update user role or plan
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body domain.UpdateUserRequest true "Changes"
// @Success 200 {object} domain.User
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.adminService.UpdateUser(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags Admin
// @Param id path string true "User ID"
// @Success 204
// @Failure 400 {object} domain.APIError
// @Security SessionCookie
// @Security ApiKeyAuth
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.adminService.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, h.logger, err, "delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
