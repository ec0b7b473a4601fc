package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/akinalp/pastane/pkg"
)

// Pinger, sağlık kontrolünde veritabanı bağlantısını yoklar. *sql.DB karşılar.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler, /healthz.
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check godoc
// GET /healthz
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		pkg.ErrorWithMessage(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "pastane"})
}
