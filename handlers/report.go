package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler, satış raporları (sahip) ve vitrin istatistikleri.
type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// PublicStats godoc
// GET /api/v1/stats
// Auth gerekmez; sonuç kısa süre önbelleklenir.
func (h *ReportHandler) PublicStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportService.PublicStats(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, stats)
}

// Summary godoc
// GET /api/admin/reports/summary?from=&to=
// from/to boşsa son 30 gün.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reportService.Summary(r.Context(), reportRange(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, summary)
}

// Daily godoc
// GET /api/admin/reports/daily?from=&to=
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	points, err := h.reportService.Daily(r.Context(), reportRange(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, points)
}

// Monthly godoc
// GET /api/admin/reports/monthly?from=&to=
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	points, err := h.reportService.Monthly(r.Context(), reportRange(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, points)
}

// ByCategory godoc
// GET /api/admin/reports/categories?from=&to=
func (h *ReportHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	sales, err := h.reportService.ByCategory(r.Context(), reportRange(r))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, sales)
}

// TopCustomers godoc
// GET /api/admin/reports/customers?limit=10
func (h *ReportHandler) TopCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.reportService.TopCustomers(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, customers)
}

// Export godoc
// GET /api/admin/reports/export?from=&to=
//
// Dosya önce belleğe yazılır; hata olursa yarım xlsx yerine JSON hata döner.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	rng := reportRange(r)
	if err := rng.Validate(time.Now()); err != nil {
		pkg.Error(w, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error()))
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.ExportXLSX(r.Context(), rng, &buf); err != nil {
		pkg.Error(w, err)
		return
	}

	filename := fmt.Sprintf("satis-%s_%s.xlsx", rng.From, rng.To)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
