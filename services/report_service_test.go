package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/cache"
	"github.com/akinalp/pastane/repository"
)

func line(date, cat string, qty int, price string, status models.OrderStatus, gift bool) models.SalesLine {
	return models.SalesLine{
		DeliveryDate: date,
		CategoryID:   cat,
		CategoryName: "Kategori " + cat,
		Quantity:     qty,
		TotalPrice:   decimal.RequireFromString(price),
		Status:       status,
		IsGift:       gift,
	}
}

func TestSummarize(t *testing.T) {
	lines := []models.SalesLine{
		line("2030-01-01", "a", 2, "100", models.OrderStatusCompleted, false),
		line("2030-01-01", "a", 1, "50.25", models.OrderStatusCompleted, false),
		line("2030-01-02", "b", 3, "0", models.OrderStatusCompleted, true),
		line("2030-01-02", "b", 5, "500", models.OrderStatusCancelled, false),
		line("2030-01-03", "a", 1, "75", models.OrderStatusPending, false),
	}

	sum := summarize(lines)
	assert.Equal(t, 5, sum.TotalOrders)
	assert.Equal(t, 3, sum.ByStatus[models.OrderStatusCompleted])
	assert.Equal(t, 0, sum.ByStatus[models.OrderStatusPreparing])
	assert.Equal(t, 6, sum.CompletedQuantity)
	assert.Equal(t, "150.25", sum.Revenue.String())
	assert.Equal(t, "75.13", sum.AverageOrderValue.String(), "gift orders are not paid orders")
	assert.Equal(t, 1, sum.GiftsRedeemed)
}

func TestSeriesAndCategories(t *testing.T) {
	lines := []models.SalesLine{
		line("2030-01-30", "a", 2, "100", models.OrderStatusCompleted, false),
		line("2030-01-31", "b", 1, "40", models.OrderStatusPreparing, false),
		line("2030-02-01", "b", 4, "300", models.OrderStatusCompleted, false),
		line("2030-02-01", "b", 4, "300", models.OrderStatusCancelled, false),
	}
	rng := models.ReportRange{From: "2030-01-30", To: "2030-02-02"}

	daily := series(lines, rng, func(d string) string { return d }, func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }, models.DateLayout)
	require.Len(t, daily, 4)
	assert.Equal(t, "2030-01-31", daily[1].Period)
	assert.Equal(t, 1, daily[1].Orders)
	assert.True(t, daily[1].Revenue.IsZero(), "only completed orders make revenue")
	assert.Equal(t, 1, daily[2].Orders, "cancelled orders are excluded")
	assert.Equal(t, 0, daily[3].Orders)

	monthly := series(lines, rng, func(d string) string { return d[:7] }, func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }, models.MonthLayout)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2030-01", monthly[0].Period)
	assert.Equal(t, 3, monthly[0].Quantity)
	assert.Equal(t, "300", monthly[1].Revenue.String())

	cats := byCategory(lines)
	require.Len(t, cats, 2)
	assert.Equal(t, "b", cats[0].CategoryID)
	assert.Equal(t, 2, cats[0].Orders)
	assert.InDelta(t, 0.75, cats[0].Share, 0.0001)
	assert.InDelta(t, 0.25, cats[1].Share, 0.0001)
}

func TestReportService_Integration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cupcake := env.category(t, "cupcake")

	price := decimal.RequireFromString("120")
	req := cupcakeOrder(cupcake, "2030-04-01")
	req.TotalPrice = &price
	o := env.createOrder(t, req)
	env.setStatus(t, o.ID, models.OrderStatusCompleted)
	env.createOrder(t, cupcakeOrder(cupcake, "2030-04-02"))

	stats := cache.New[string, *models.PublicStats](time.Minute, time.Minute)
	t.Cleanup(stats.Close)
	svc := NewReportService(repository.NewSQLiteReportRepo(env.db), env.customers, stats)

	rng := models.ReportRange{From: "2030-04-01", To: "2030-04-30"}
	sum, err := svc.Summary(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalOrders)
	assert.Equal(t, "120", sum.Revenue.String())
	assert.Equal(t, rng, sum.Range)

	_, err = svc.Summary(ctx, models.ReportRange{From: "2030-05-01", To: "2030-04-01"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(ctx, rng, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Özet", "Günlük", "Kategoriler"}, f.GetSheetList())

	v, err := f.GetCellValue("Günlük", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2030-04-01", v)
	v, err = f.GetCellValue("Kategoriler", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Cupcake", v)

	public, err := svc.PublicStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, public.CompletedOrders)
	assert.Equal(t, 1, public.Customers)
	assert.Equal(t, 4, public.Categories)

	top, err := svc.TopCustomers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 1, top[0].CompletedOrders)
}
