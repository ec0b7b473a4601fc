package handlers

import (
	"net/http"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/services"
)

// OrderHandler, panel sipariş endpoint'leri.
type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// List godoc
// GET /api/admin/orders?status=&from=&to=&customer_id=&q=&limit=&offset=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.OrderFilter{
		Status:     models.OrderStatus(q.Get("status")),
		From:       q.Get("from"),
		To:         q.Get("to"),
		CustomerID: q.Get("customer_id"),
		Search:     q.Get("q"),
		Limit:      queryInt(r, "limit", 50),
		Offset:     queryInt(r, "offset", 0),
	}

	list, err := h.orderService.List(r.Context(), filter)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, list)
}

// Get godoc
// GET /api/admin/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, order)
}

// GetByNumber godoc
// GET /api/admin/order-numbers/{number}
func (h *OrderHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, order)
}

// Create godoc
// POST /api/admin/orders
//
// Gün kapasitesi aşılıyorsa 409 döner; "force": true ile yine de kaydedilir.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	var req models.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.Create(r.Context(), admin.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, order)
}

// Update godoc
// PATCH /api/admin/orders/{id}
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orderService.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, order)
}

// UpdateStatus godoc
// PATCH /api/admin/orders/{id}/status
// Body: { "status": "tamamlandi", "force": false }
//
// Yanıt, sadakat sayaçlarının güncel halini ve hediye kazanılıp
// kazanılmadığını içerir.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.orderService.UpdateStatus(r.Context(), r.PathValue("id"), admin.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, result)
}

// Delete godoc
// DELETE /api/admin/orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orderService.Delete(r.Context(), r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, messageResponse{Message: "order deleted"})
}

// History godoc
// GET /api/admin/orders/{id}/history
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.orderService.History(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, history)
}
