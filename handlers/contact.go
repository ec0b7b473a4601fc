package handlers

import (
	"net/http"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/ratelimit"
	"github.com/akinalp/pastane/services"
)

// ContactHandler, iletişim formu ve panel mesaj kutusu.
type ContactHandler struct {
	contactService services.ContactService
}

func NewContactHandler(contactService services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Submit godoc
// POST /api/v1/contact
//
// Spam olarak işaretlenen mesajlar da 201 alır; gönderen farkı görmez.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContactMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.contactService.Submit(r.Context(), &req, ratelimit.ClientIP(r)); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, messageResponse{Message: "message received"})
}

// List godoc
// GET /api/admin/messages?unread=&spam=&limit=&offset=
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.contactService.List(r.Context(), models.ContactFilter{
		UnreadOnly:  queryBool(r, "unread"),
		IncludeSpam: queryBool(r, "spam"),
		Limit:       queryInt(r, "limit", 50),
		Offset:      queryInt(r, "offset", 0),
	})
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, list)
}

// Get godoc
// GET /api/admin/messages/{id}
// Mesaj okundu olarak işaretlenir.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	msg, err := h.contactService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}

// MarkRead godoc
// PATCH /api/admin/messages/{id}
// Body: { "is_read": false }
func (h *ContactHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsRead bool `json:"is_read"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.contactService.MarkRead(r.Context(), r.PathValue("id"), req.IsRead); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, messageResponse{Message: "message updated"})
}

// Delete godoc
// DELETE /api/admin/messages/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.contactService.Delete(r.Context(), r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, messageResponse{Message: "message deleted"})
}

// UnreadCount godoc
// GET /api/admin/messages/unread
func (h *ContactHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.contactService.UnreadCount(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]int{"unread": n})
}
