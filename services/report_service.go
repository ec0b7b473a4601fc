package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/cache"
	"github.com/akinalp/pastane/repository"
)

// ReportService, satış raporları ve vitrin sayaçları.
//
// Ciro yalnızca tamamlanan siparişlerden hesaplanır. Seri ve kategori
// kırılımlarında sipariş ve adet sayıları iptal edilmeyen siparişleri kapsar.
type ReportService interface {
	Summary(ctx context.Context, rng models.ReportRange) (*models.SalesSummary, error)
	Daily(ctx context.Context, rng models.ReportRange) ([]models.SalesPoint, error)
	Monthly(ctx context.Context, rng models.ReportRange) ([]models.SalesPoint, error)
	ByCategory(ctx context.Context, rng models.ReportRange) ([]models.CategorySales, error)
	TopCustomers(ctx context.Context, limit int) ([]models.Customer, error)
	// ExportXLSX, aralığın raporunu Özet, Günlük ve Kategoriler sayfalarıyla
	// w'ye yazar.
	ExportXLSX(ctx context.Context, rng models.ReportRange, w io.Writer) error
	PublicStats(ctx context.Context) (*models.PublicStats, error)
}

type reportService struct {
	reportRepo   repository.ReportRepository
	customerRepo repository.CustomerRepository
	stats        *cache.TTLCache[string, *models.PublicStats]
	now          func() time.Time
}

func NewReportService(
	reportRepo repository.ReportRepository,
	customerRepo repository.CustomerRepository,
	stats *cache.TTLCache[string, *models.PublicStats],
) ReportService {
	return &reportService{
		reportRepo:   reportRepo,
		customerRepo: customerRepo,
		stats:        stats,
		now:          time.Now,
	}
}

func (s *reportService) lines(ctx context.Context, rng *models.ReportRange) ([]models.SalesLine, error) {
	if err := rng.Validate(s.now()); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	return s.reportRepo.SalesLines(ctx, rng.From, rng.To)
}

func (s *reportService) Summary(ctx context.Context, rng models.ReportRange) (*models.SalesSummary, error) {
	lines, err := s.lines(ctx, &rng)
	if err != nil {
		return nil, err
	}
	newCustomers, err := s.customerRepo.CountCreatedBetween(ctx, rng.From, rng.To)
	if err != nil {
		return nil, err
	}

	sum := summarize(lines)
	sum.Range = rng
	sum.NewCustomers = newCustomers
	return sum, nil
}

func summarize(lines []models.SalesLine) *models.SalesSummary {
	sum := &models.SalesSummary{
		ByStatus: make(map[models.OrderStatus]int, len(models.OrderStatuses)),
		Revenue:  decimal.Zero,
	}
	for _, st := range models.OrderStatuses {
		sum.ByStatus[st] = 0
	}

	paid := 0
	for _, l := range lines {
		sum.TotalOrders++
		sum.ByStatus[l.Status]++
		if l.IsGift && l.Status != models.OrderStatusCancelled {
			sum.GiftsRedeemed++
		}
		if l.Status != models.OrderStatusCompleted {
			continue
		}
		sum.CompletedQuantity += l.Quantity
		sum.Revenue = sum.Revenue.Add(l.TotalPrice)
		if !l.IsGift {
			paid++
		}
	}

	sum.AverageOrderValue = decimal.Zero
	if paid > 0 {
		sum.AverageOrderValue = sum.Revenue.Div(decimal.NewFromInt(int64(paid))).Round(2)
	}
	return sum
}

func (s *reportService) Daily(ctx context.Context, rng models.ReportRange) ([]models.SalesPoint, error) {
	lines, err := s.lines(ctx, &rng)
	if err != nil {
		return nil, err
	}
	return series(lines, rng, func(date string) string { return date }, func(t time.Time) time.Time {
		return t.AddDate(0, 0, 1)
	}, models.DateLayout), nil
}

func (s *reportService) Monthly(ctx context.Context, rng models.ReportRange) ([]models.SalesPoint, error) {
	lines, err := s.lines(ctx, &rng)
	if err != nil {
		return nil, err
	}
	return series(lines, rng, func(date string) string { return date[:len(models.MonthLayout)] }, func(t time.Time) time.Time {
		return t.AddDate(0, 1, 0)
	}, models.MonthLayout), nil
}

// series, aralığın her periyodu için bir nokta üretir; siparişsiz periyotlar
// sıfırla yer alır.
func series(lines []models.SalesLine, rng models.ReportRange, period func(string) string, next func(time.Time) time.Time, layout string) []models.SalesPoint {
	byPeriod := make(map[string]*models.SalesPoint)
	var points []models.SalesPoint

	from, _ := models.ParseDate(rng.From)
	to, _ := models.ParseDate(rng.To)
	if layout == models.MonthLayout {
		from = time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	for t := from; !t.After(to); t = next(t) {
		points = append(points, models.SalesPoint{Period: t.Format(layout), Revenue: decimal.Zero})
	}
	for i := range points {
		byPeriod[points[i].Period] = &points[i]
	}

	for _, l := range lines {
		p, ok := byPeriod[period(l.DeliveryDate)]
		if !ok || l.Status == models.OrderStatusCancelled {
			continue
		}
		p.Orders++
		p.Quantity += l.Quantity
		if l.Status == models.OrderStatusCompleted {
			p.Revenue = p.Revenue.Add(l.TotalPrice)
		}
	}
	return points
}

func (s *reportService) ByCategory(ctx context.Context, rng models.ReportRange) ([]models.CategorySales, error) {
	lines, err := s.lines(ctx, &rng)
	if err != nil {
		return nil, err
	}
	return byCategory(lines), nil
}

func byCategory(lines []models.SalesLine) []models.CategorySales {
	index := make(map[string]int)
	result := []models.CategorySales{}
	total := decimal.Zero

	for _, l := range lines {
		if l.Status == models.OrderStatusCancelled {
			continue
		}
		i, ok := index[l.CategoryID]
		if !ok {
			i = len(result)
			index[l.CategoryID] = i
			result = append(result, models.CategorySales{
				CategoryID:   l.CategoryID,
				CategoryName: l.CategoryName,
				Revenue:      decimal.Zero,
			})
		}
		result[i].Orders++
		result[i].Quantity += l.Quantity
		if l.Status == models.OrderStatusCompleted {
			result[i].Revenue = result[i].Revenue.Add(l.TotalPrice)
			total = total.Add(l.TotalPrice)
		}
	}

	if total.IsPositive() {
		for i := range result {
			result[i].Share = result[i].Revenue.Div(total).InexactFloat64()
		}
	}
	sort.SliceStable(result, func(a, b int) bool {
		if !result[a].Revenue.Equal(result[b].Revenue) {
			return result[a].Revenue.GreaterThan(result[b].Revenue)
		}
		return result[a].Quantity > result[b].Quantity
	})
	return result
}

func (s *reportService) TopCustomers(ctx context.Context, limit int) ([]models.Customer, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.customerRepo.Top(ctx, limit)
}

func (s *reportService) PublicStats(ctx context.Context) (*models.PublicStats, error) {
	return s.stats.GetOrLoad("public", func() (*models.PublicStats, error) {
		return s.reportRepo.PublicStats(ctx)
	})
}

func (s *reportService) ExportXLSX(ctx context.Context, rng models.ReportRange, w io.Writer) error {
	lines, err := s.lines(ctx, &rng)
	if err != nil {
		return err
	}
	newCustomers, err := s.customerRepo.CountCreatedBetween(ctx, rng.From, rng.To)
	if err != nil {
		return err
	}
	sum := summarize(lines)
	sum.Range = rng
	sum.NewCustomers = newCustomers

	daily := series(lines, rng, func(date string) string { return date }, func(t time.Time) time.Time {
		return t.AddDate(0, 0, 1)
	}, models.DateLayout)

	f, err := buildWorkbook(sum, daily, byCategory(lines))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Excel sayfa adları
const (
	sheetSummary    = "Özet"
	sheetDaily      = "Günlük"
	sheetCategories = "Kategoriler"
)

var statusLabels = map[models.OrderStatus]string{
	models.OrderStatusPending:   "Beklemede",
	models.OrderStatusConfirmed: "Onaylandı",
	models.OrderStatusPreparing: "Hazırlanıyor",
	models.OrderStatusCompleted: "Tamamlandı",
	models.OrderStatusCancelled: "İptal",
}

func buildWorkbook(sum *models.SalesSummary, daily []models.SalesPoint, cats []models.CategorySales) (*excelize.File, error) {
	f := excelize.NewFile()
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	summaryRows := [][]any{
		{"Başlangıç", sum.Range.From},
		{"Bitiş", sum.Range.To},
		{"Toplam sipariş", sum.TotalOrders},
	}
	for _, st := range models.OrderStatuses {
		summaryRows = append(summaryRows, []any{statusLabels[st], sum.ByStatus[st]})
	}
	summaryRows = append(summaryRows,
		[]any{"Tamamlanan adet", sum.CompletedQuantity},
		[]any{"Ciro (TL)", sum.Revenue.InexactFloat64()},
		[]any{"Ortalama sipariş (TL)", sum.AverageOrderValue.InexactFloat64()},
		[]any{"Kullanılan hediye", sum.GiftsRedeemed},
		[]any{"Yeni müşteri", sum.NewCustomers},
	)
	if err := writeRows(f, sheetSummary, nil, summaryRows); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", len(summaryRows)), bold); err != nil {
		return nil, fmt.Errorf("failed to style summary: %w", err)
	}

	dailyRows := make([][]any, 0, len(daily))
	for _, p := range daily {
		dailyRows = append(dailyRows, []any{p.Period, p.Orders, p.Quantity, p.Revenue.InexactFloat64()})
	}
	if err := addSheet(f, sheetDaily, []any{"Tarih", "Sipariş", "Adet", "Ciro (TL)"}, dailyRows, bold); err != nil {
		return nil, err
	}

	catRows := make([][]any, 0, len(cats))
	for _, c := range cats {
		catRows = append(catRows, []any{c.CategoryName, c.Orders, c.Quantity, c.Revenue.InexactFloat64(), c.Share})
	}
	if err := addSheet(f, sheetCategories, []any{"Kategori", "Sipariş", "Adet", "Ciro (TL)", "Pay"}, catRows, bold); err != nil {
		return nil, err
	}

	for _, sheet := range []string{sheetSummary, sheetDaily, sheetCategories} {
		if err := f.SetColWidth(sheet, "A", "E", 18); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	f.SetActiveSheet(0)

	ok = true
	return f, nil
}

func addSheet(f *excelize.File, name string, header []any, rows [][]any, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	if err := writeRows(f, name, header, rows); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", name, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	row := 1
	if header != nil {
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", sheet, err)
		}
		row++
	}
	for _, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write row of %s: %w", sheet, err)
		}
		row++
	}
	return nil
}
