package services

import (
	"context"
	"fmt"
	"time"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/cache"
	"github.com/akinalp/pastane/repository"
)

// CalendarService, teslim takvimi ve günlük iş yükü.
type CalendarService interface {
	// Month, ayın her günü için Puan, seviye ve sipariş sayısı.
	Month(ctx context.Context, month string) (*models.CalendarMonth, error)
	// Day, tek günün özeti; withOrders ise günün siparişleri de döner (panel).
	Day(ctx context.Context, date string, withOrders bool) (*models.CalendarDayDetail, error)
	// CheckCapacity, güne extra Puan eklenebilir mi. Sığmazsa ErrConflict.
	CheckCapacity(ctx context.Context, date string, extra int) error
	// Invalidate, verilen tarihlerin ay önbelleğini siler.
	Invalidate(dates ...string)
	// InvalidateAll, kategori Puan'ı değişince tüm ayları siler.
	InvalidateAll()
	Workload() Workload
}

type calendarService struct {
	orderRepo repository.OrderRepository
	workload  Workload
	months    *cache.TTLCache[string, *models.CalendarMonth]
	now       func() time.Time
}

// NewCalendarService, months cache'i dışarıdan alır; main kapatırken Close eder.
func NewCalendarService(
	orderRepo repository.OrderRepository,
	workload Workload,
	months *cache.TTLCache[string, *models.CalendarMonth],
) CalendarService {
	return &calendarService{
		orderRepo: orderRepo,
		workload:  workload,
		months:    months,
		now:       time.Now,
	}
}

func (s *calendarService) Workload() Workload { return s.workload }

func (s *calendarService) Month(ctx context.Context, month string) (*models.CalendarMonth, error) {
	first, err := models.ParseMonth(month)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	key := first.Format(models.MonthLayout)

	return s.months.GetOrLoad(key, func() (*models.CalendarMonth, error) {
		return s.buildMonth(ctx, first)
	})
}

func (s *calendarService) buildMonth(ctx context.Context, first time.Time) (*models.CalendarMonth, error) {
	last := first.AddDate(0, 1, -1)

	loads, err := s.orderRepo.DailyLoads(ctx, first.Format(models.DateLayout), last.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to load daily workload: %w", err)
	}
	byDate := make(map[string]models.DailyLoad, len(loads))
	for _, l := range loads {
		byDate[l.Date] = l
	}

	today := s.today()
	month := &models.CalendarMonth{
		Month:         first.Format(models.MonthLayout),
		BusyThreshold: s.workload.Busy,
		FullThreshold: s.workload.Full,
		Days:          make([]models.CalendarDay, 0, last.Day()),
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		date := d.Format(models.DateLayout)
		month.Days = append(month.Days, s.day(date, d, byDate[date], today))
	}
	return month, nil
}

func (s *calendarService) day(date string, t time.Time, load models.DailyLoad, today string) models.CalendarDay {
	return models.CalendarDay{
		Date:       date,
		Weekday:    int(t.Weekday()),
		Score:      load.Score,
		Tier:       s.workload.Tier(load.Score),
		OrderCount: load.OrderCount,
		Remaining:  s.workload.Remaining(load.Score),
		IsPast:     date < today,
	}
}

func (s *calendarService) Day(ctx context.Context, date string, withOrders bool) (*models.CalendarDayDetail, error) {
	t, err := models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	date = t.Format(models.DateLayout)

	loads, err := s.orderRepo.DailyLoads(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily workload: %w", err)
	}
	var load models.DailyLoad
	if len(loads) > 0 {
		load = loads[0]
	}

	detail := &models.CalendarDayDetail{CalendarDay: s.day(date, t, load, s.today())}
	if withOrders {
		orders, err := s.orderRepo.ListByDeliveryDate(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders of day: %w", err)
		}
		detail.Orders = orders
	}
	return detail, nil
}

func (s *calendarService) CheckCapacity(ctx context.Context, date string, extra int) error {
	score, err := s.orderRepo.DayScore(ctx, date, "")
	if err != nil {
		return fmt.Errorf("failed to get day score: %w", err)
	}
	return capacityError(s.workload, date, score, extra)
}

func (s *calendarService) Invalidate(dates ...string) {
	for _, d := range dates {
		if len(d) >= len(models.MonthLayout) {
			s.months.Delete(d[:len(models.MonthLayout)])
		}
	}
}

func (s *calendarService) InvalidateAll() {
	s.months.Clear()
}

// today, pastanenin bulunduğu saat dilimine göre bugünün tarihi. Sunucu
// TZ ayarı (ör: Europe/Istanbul) kullanılır.
func (s *calendarService) today() string {
	return s.now().Format(models.DateLayout)
}

// capacityError, skor+extra eşiği aşıyorsa ErrConflict döner.
func capacityError(w Workload, date string, score, extra int) error {
	if w.Fits(score, extra) {
		return nil
	}
	return fmt.Errorf("%w: %s is full (%d of %d points used, order needs %d)",
		pkg.ErrConflict, date, score, w.Full, extra)
}
