package handlers

import (
	"net/http"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/ratelimit"
	"github.com/akinalp/pastane/services"
)

// CustomerHandler, müşteri kayıtları ve vitrindeki sadakat sorgusu.
type CustomerHandler struct {
	customerService services.CustomerService
}

func NewCustomerHandler(customerService services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// customerDetail, panel müşteri kartı: kayıt ve sadakat ilerlemesi.
type customerDetail struct {
	*models.Customer
	Loyalty models.LoyaltyProgress `json:"loyalty"`
}

// List godoc
// GET /api/admin/customers?q=&limit=&offset=
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.customerService.List(r.Context(), models.CustomerFilter{
		Search: r.URL.Query().Get("q"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, list)
}

// Get godoc
// GET /api/admin/customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customerService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, customerDetail{Customer: customer, Loyalty: h.customerService.Progress(customer)})
}

// Update godoc
// PATCH /api/admin/customers/{id}
// Sadakat sayaçları buradan değiştirilemez.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customer, err := h.customerService.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, customer)
}

// Orders godoc
// GET /api/admin/customers/{id}/orders?limit=&offset=
func (h *CustomerHandler) Orders(w http.ResponseWriter, r *http.Request) {
	list, err := h.customerService.Orders(r.Context(), r.PathValue("id"), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, list)
}

// LoyaltyLookup godoc
// POST /api/v1/loyalty
// Body: { "phone": "0532 123 45 67" }
//
// Telefon query string'e yazılmasın diye POST.
func (h *CustomerHandler) LoyaltyLookup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	progress, err := h.customerService.LoyaltyLookup(r.Context(), req.Phone, ratelimit.ClientIP(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, progress)
}
