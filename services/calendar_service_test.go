package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
)

func TestCalendarService_Month(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cake := env.category(t, "yas-pasta")
	cookie := env.category(t, "butik-kurabiye")

	req := cupcakeOrder(cake, "2030-02-03")
	req.Quantity = 4 // 40 Puan
	env.createOrder(t, req)

	req = cupcakeOrder(cookie, "2030-02-04")
	req.Quantity = 3 // 6 Puan
	env.createOrder(t, req)

	req = cupcakeOrder(cookie, "2030-02-04")
	cancelled := env.createOrder(t, req)
	env.setStatus(t, cancelled.ID, models.OrderStatusCancelled)

	month, err := env.calendar.Month(ctx, "2030-02")
	require.NoError(t, err)
	require.Len(t, month.Days, 28)
	assert.Equal(t, 80, month.FullThreshold)

	byDate := map[string]models.CalendarDay{}
	for _, d := range month.Days {
		byDate[d.Date] = d
	}
	assert.Equal(t, models.TierEmpty, byDate["2030-02-01"].Tier)
	assert.Equal(t, models.TierBusy, byDate["2030-02-03"].Tier)
	assert.Equal(t, 40, byDate["2030-02-03"].Remaining)
	assert.Equal(t, 6, byDate["2030-02-04"].Score, "cancelled orders do not count")
	assert.Equal(t, models.TierAvailable, byDate["2030-02-04"].Tier)
	assert.Equal(t, 1, byDate["2030-02-04"].OrderCount)
	assert.Equal(t, int(time.Monday), byDate["2030-02-04"].Weekday)
}

func TestCalendarService_CacheInvalidatedByOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cupcake := env.category(t, "cupcake")

	month, err := env.calendar.Month(ctx, "2030-03")
	require.NoError(t, err)
	assert.Equal(t, 0, month.Days[9].Score)

	env.createOrder(t, cupcakeOrder(cupcake, "2030-03-10"))

	month, err = env.calendar.Month(ctx, "2030-03")
	require.NoError(t, err)
	assert.Equal(t, 1, month.Days[9].Score)
}

func TestCalendarService_DayAndValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	o := env.createOrder(t, cupcakeOrder(env.category(t, "cupcake"), testDate))

	day, err := env.calendar.Day(ctx, testDate, true)
	require.NoError(t, err)
	require.Len(t, day.Orders, 1)
	assert.Equal(t, o.ID, day.Orders[0].ID)

	day, err = env.calendar.Day(ctx, testDate, false)
	require.NoError(t, err)
	assert.Empty(t, day.Orders)

	_, err = env.calendar.Month(ctx, "2030-13")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
	_, err = env.calendar.Day(ctx, "yarın", false)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	assert.NoError(t, env.calendar.CheckCapacity(ctx, testDate, 79))
	assert.ErrorIs(t, env.calendar.CheckCapacity(ctx, testDate, 80), pkg.ErrConflict)
}
