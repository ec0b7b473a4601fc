package handlers

import (
	"net/http"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/services"
)

// AdminHandler, yönetici hesapları. Route'lar RequireOwner ile korunur.
type AdminHandler struct {
	authService services.AuthService
}

func NewAdminHandler(authService services.AuthService) *AdminHandler {
	return &AdminHandler{authService: authService}
}

// List godoc
// GET /api/admin/admins
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.authService.ListAdmins(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, admins)
}

// Create godoc
// POST /api/admin/admins
// Body: { "username": "...", "display_name": "...", "password": "...", "role": "staff" }
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	admin, err := h.authService.CreateAdmin(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, admin)
}

// Delete godoc
// DELETE /api/admin/admins/{id}
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	if err := h.authService.DeleteAdmin(r.Context(), actor.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, messageResponse{Message: "admin deleted"})
}
