package handlers

import (
	"net/http"
	"time"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/services"
)

// CalendarHandler, doluluk takvimi.
type CalendarHandler struct {
	calendarService services.CalendarService
}

func NewCalendarHandler(calendarService services.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// Month godoc
// GET /api/v1/calendar?month=2026-10
// GET /api/admin/calendar?month=2026-10
// month verilmezse içinde bulunulan ay.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format(models.MonthLayout)
	}

	cal, err := h.calendarService.Month(r.Context(), month)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, cal)
}

// PublicDay godoc
// GET /api/v1/calendar/{date}
// Vitrine siparişler gösterilmez; sadece günün Puan ve seviyesi.
func (h *CalendarHandler) PublicDay(w http.ResponseWriter, r *http.Request) {
	day, err := h.calendarService.Day(r.Context(), r.PathValue("date"), false)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, day.CalendarDay)
}

// Day godoc
// GET /api/admin/calendar/{date}
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	day, err := h.calendarService.Day(r.Context(), r.PathValue("date"), true)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, day)
}
