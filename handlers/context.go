package handlers

import (
	"net/http"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
)

// contextKey, context'e eklenen değerlerin key tipi. Başka paketlerin
// string key'leriyle çakışmaz.
type contextKey string

// AdminContextKey, AuthMiddleware'in doğruladığı yöneticiyi taşır.
// Handler'larda currentAdmin(r) ile okunur.
const AdminContextKey contextKey = "admin"

// currentAdmin, context'teki yöneticiyi döner. Auth middleware'den
// geçmemiş bir route'ta çağrılırsa 401 yazar ve false döner.
func currentAdmin(w http.ResponseWriter, r *http.Request) (*models.Admin, bool) {
	admin, ok := r.Context().Value(AdminContextKey).(*models.Admin)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return admin, true
}
