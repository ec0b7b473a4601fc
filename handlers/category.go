package handlers

import (
	"net/http"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/services"
)

// CategoryHandler, kategori endpoint'leri.
type CategoryHandler struct {
	categoryService services.CategoryService
}

func NewCategoryHandler(categoryService services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// PublicList godoc
// GET /api/v1/categories
// Sadece aktif kategoriler; sonuç önbellekten gelir.
func (h *CategoryHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context(), false)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, categories)
}

// List godoc
// GET /api/admin/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context(), true)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, categories)
}

// Create godoc
// POST /api/admin/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.categoryService.Create(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, category)
}

// Update godoc
// PATCH /api/admin/categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.categoryService.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, category)
}

// Delete godoc
// DELETE /api/admin/categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.categoryService.Delete(r.Context(), r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, messageResponse{Message: "category deleted"})
}
