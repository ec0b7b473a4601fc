package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/ratelimit"
	"github.com/akinalp/pastane/repository"
	"github.com/akinalp/pastane/ws"
)

func newContactEnv(t *testing.T, limiter *ratelimit.IPLimiter) (ContactService, *fakeHub, *fakeMailer) {
	t.Helper()
	hub, mailer := newFakeHub(), &fakeMailer{}
	svc := NewContactService(repository.NewSQLiteContactRepo(newTestDB(t)), limiter, mailer, hub)
	return svc, hub, mailer
}

func contactRequest() *models.CreateContactMessageRequest {
	return &models.CreateContactMessageRequest{
		Name:    "  Mehmet   Demir ",
		Email:   "mehmet@example.com",
		Phone:   "0555 111 22 33",
		Subject: "Düğün pastası",
		Body:    "Merhaba, haziran ayında 150 kişilik düğün pastası için fiyat alabilir miyim?",
	}
}

func TestContactService_Submit(t *testing.T) {
	svc, hub, mailer := newContactEnv(t, nil)
	ctx := context.Background()

	msg, err := svc.Submit(ctx, contactRequest(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Mehmet Demir", msg.Name)
	assert.Equal(t, "5551112233", msg.Phone)
	assert.False(t, msg.IsSpam)
	assert.Equal(t, "10.0.0.1", msg.IPAddress)

	assert.Contains(t, hub.ops(), ws.OpMessageCreate)
	require.Eventually(t, func() bool { return mailer.contactCount() == 1 }, time.Second, 10*time.Millisecond)

	unread, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	got, err := svc.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	unread, err = svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, unread)

	require.NoError(t, svc.MarkRead(ctx, msg.ID, false))
	list, err := svc.List(ctx, models.ContactFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 1, list.Unread)

	require.NoError(t, svc.Delete(ctx, msg.ID))
	_, err = svc.Get(ctx, msg.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestContactService_SpamIsStoredQuietly(t *testing.T) {
	svc, hub, mailer := newContactEnv(t, nil)
	ctx := context.Background()

	honeypot := contactRequest()
	honeypot.Website = "http://bot.example"
	msg, err := svc.Submit(ctx, honeypot, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, msg.IsSpam)

	keywords := contactRequest()
	keywords.Body = "Great casino and bitcoin opportunities, visit us now!"
	msg, err = svc.Submit(ctx, keywords, "10.0.0.3")
	require.NoError(t, err)
	assert.True(t, msg.IsSpam)

	assert.NotContains(t, hub.ops(), ws.OpMessageCreate)
	assert.Never(t, func() bool { return mailer.contactCount() > 0 }, 50*time.Millisecond, 10*time.Millisecond)

	list, err := svc.List(ctx, models.ContactFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total, "spam is hidden by default")

	list, err = svc.List(ctx, models.ContactFilter{IncludeSpam: true})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
}

func TestContactService_ValidationAndRateLimit(t *testing.T) {
	limiter := ratelimit.NewIPLimiter(1, 1, time.Minute)
	t.Cleanup(limiter.Stop)
	svc, _, _ := newContactEnv(t, limiter)
	ctx := context.Background()

	short := contactRequest()
	short.Body = "kısa"
	_, err := svc.Submit(ctx, short, "10.0.0.9")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = svc.Submit(ctx, contactRequest(), "10.0.0.9")
	assert.ErrorIs(t, err, pkg.ErrTooManyRequests, "the failed attempt used the only token")

	_, err = svc.Submit(ctx, contactRequest(), "10.0.0.10")
	assert.NoError(t, err, "other IPs are unaffected")
}
