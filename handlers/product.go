package handlers

import (
	"errors"
	"net/http"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/services"
)

// ProductHandler, ürün ve ürün görseli endpoint'leri.
type ProductHandler struct {
	productService services.ProductService
	uploadService  services.UploadService
	maxUploadSize  int64
}

func NewProductHandler(productService services.ProductService, uploadService services.UploadService, maxUploadSize int64) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		uploadService:  uploadService,
		maxUploadSize:  maxUploadSize,
	}
}

func productFilter(r *http.Request) models.ProductFilter {
	q := r.URL.Query()
	return models.ProductFilter{
		CategoryID:   q.Get("category_id"),
		OnlyFeatured: queryBool(r, "featured"),
		Search:       q.Get("q"),
	}
}

// PublicList godoc
// GET /api/v1/products?category_id=&featured=&q=
func (h *ProductHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	filter := productFilter(r)
	filter.OnlyActive = true

	products, err := h.productService.List(r.Context(), filter)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, products)
}

// PublicGet godoc
// GET /api/v1/products/{slug}
// Pasif ürünler vitrinde bulunamaz.
func (h *ProductHandler) PublicGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.GetBySlug(r.Context(), r.PathValue("slug"))
	if err == nil && !product.IsActive {
		err = pkg.ErrNotFound
	}
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, product)
}

// List godoc
// GET /api/admin/products?category_id=&featured=&active=&q=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := productFilter(r)
	filter.OnlyActive = queryBool(r, "active")

	products, err := h.productService.List(r.Context(), filter)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, products)
}

// Get godoc
// GET /api/admin/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, product)
}

// Create godoc
// POST /api/admin/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.productService.Create(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, product)
}

// Update godoc
// PATCH /api/admin/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.productService.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, product)
}

// Delete godoc
// DELETE /api/admin/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.productService.Delete(r.Context(), r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, messageResponse{Message: "product deleted"})
}

// UploadImage godoc
// POST /api/admin/products/{id}/image
// Content-Type: multipart/form-data, alan adı "file".
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Multipart zarfı için 1MB pay
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkg.ErrorWithMessage(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	product, err := h.uploadService.ProductImage(r.Context(), r.PathValue("id"), file)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, product)
}

// RemoveImage godoc
// DELETE /api/admin/products/{id}/image
func (h *ProductHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	product, err := h.uploadService.RemoveProductImage(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, product)
}
