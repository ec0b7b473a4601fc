package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/pastane/config"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/repository"
)

func newTestScheduler(t *testing.T, env *testEnv) *scheduler {
	t.Helper()
	s, err := NewScheduler(config.JobsConfig{}, repository.NewSQLiteSessionRepo(env.db), env.calendar, env.mailer)
	require.NoError(t, err)
	return s.(*scheduler)
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	env := newTestEnv(t)
	_, err := NewScheduler(config.JobsConfig{DailyDigest: "her gün"}, repository.NewSQLiteSessionRepo(env.db), env.calendar, env.mailer)
	assert.Error(t, err)

	s, err := NewScheduler(config.JobsConfig{SessionCleanup: "@every 1h", DailyDigest: "0 20 * * *"}, repository.NewSQLiteSessionRepo(env.db), env.calendar, env.mailer)
	require.NoError(t, err)
	assert.Len(t, s.(*scheduler).cron.Entries(), 2)
}

func TestScheduler_CleanupSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := newTestScheduler(t, env)

	admin := &models.Admin{Username: "sahip", PasswordHash: "x", Role: models.AdminRoleOwner}
	require.NoError(t, repository.NewSQLiteAdminRepo(env.db).Create(ctx, admin))

	sessions := repository.NewSQLiteSessionRepo(env.db)
	now := time.Now().UTC()
	require.NoError(t, sessions.Create(ctx, &models.Session{AdminID: admin.ID, RefreshToken: "eski", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, sessions.Create(ctx, &models.Session{AdminID: admin.ID, RefreshToken: "yeni", ExpiresAt: now.Add(time.Hour)}))

	n, err := s.CleanupSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = sessions.GetByRefreshToken(ctx, "yeni")
	assert.NoError(t, err)
}

func TestScheduler_SendDailyDigest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := newTestScheduler(t, env)
	s.now = func() time.Time { return time.Date(2030, 5, 9, 20, 0, 0, 0, time.Local) }

	cake := env.category(t, "yas-pasta")
	req := cupcakeOrder(cake, testDate)
	req.Quantity = 2
	kept := env.createOrder(t, req)
	cancelled := env.createOrder(t, cupcakeOrder(env.category(t, "cupcake"), testDate))
	env.setStatus(t, cancelled.ID, models.OrderStatusCancelled)

	require.NoError(t, s.SendDailyDigest(ctx))

	env.mailer.mu.Lock()
	defer env.mailer.mu.Unlock()
	require.Len(t, env.mailer.digests, 1)
	d := env.mailer.digests[0]
	assert.Equal(t, testDate, d.Date)
	assert.Equal(t, 20, d.Score)
	assert.Equal(t, string(models.TierAvailable), d.Tier)
	require.Len(t, d.Orders, 1)
	assert.Equal(t, kept.OrderNumber, d.Orders[0].Number)
	assert.Equal(t, 2, d.Orders[0].Quantity)
}
