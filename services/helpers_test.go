package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/pastane/database"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg/cache"
	"github.com/akinalp/pastane/pkg/email"
	"github.com/akinalp/pastane/repository"
	"github.com/akinalp/pastane/ws"
)

type fakeHub struct {
	mu      sync.Mutex
	events  []ws.Event
	private map[string][]ws.Event
}

func newFakeHub() *fakeHub {
	return &fakeHub{private: make(map[string][]ws.Event)}
}

func (h *fakeHub) BroadcastToAll(ev ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *fakeHub) BroadcastToAdmin(adminID string, ev ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.private[adminID] = append(h.private[adminID], ev)
}

func (h *fakeHub) OnlineAdminIDs() []string { return nil }

func (h *fakeHub) ops() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, ev.Op)
	}
	return out
}

func (h *fakeHub) adminOps(adminID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, ev := range h.private[adminID] {
		out = append(out, ev.Op)
	}
	return out
}

type fakeMailer struct {
	mu       sync.Mutex
	contacts []email.ContactNotice
	gifts    []email.GiftNotice
	digests  []email.Digest
}

func (m *fakeMailer) SendContactNotification(_ context.Context, n email.ContactNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts = append(m.contacts, n)
	return nil
}

func (m *fakeMailer) SendGiftEarned(_ context.Context, n email.GiftNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gifts = append(m.gifts, n)
	return nil
}

func (m *fakeMailer) SendDailyDigest(_ context.Context, d email.Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.digests = append(m.digests, d)
	return nil
}

func (m *fakeMailer) giftCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.gifts)
}

func (m *fakeMailer) contactCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contacts)
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db.Conn
}

// testWorkload: Yaş Pasta (10 Puan) ile 8 adet günü tam doldurur.
var testWorkload = Workload{Busy: 40, Full: 80}

type testEnv struct {
	db        *sql.DB
	hub       *fakeHub
	mailer    *fakeMailer
	orderRepo repository.OrderRepository
	customers repository.CustomerRepository
	catRepo   repository.CategoryRepository
	prodRepo  repository.ProductRepository
	loyalty   Loyalty
	calendar  CalendarService
	orders    OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	months := cache.New[string, *models.CalendarMonth](time.Minute, time.Minute)
	t.Cleanup(months.Close)

	env := &testEnv{
		db:        db,
		hub:       newFakeHub(),
		mailer:    &fakeMailer{},
		orderRepo: repository.NewSQLiteOrderRepo(db),
		customers: repository.NewSQLiteCustomerRepo(db),
		catRepo:   repository.NewSQLiteCategoryRepo(db),
		prodRepo:  repository.NewSQLiteProductRepo(db),
		loyalty:   Loyalty{GiftEvery: 5},
	}
	env.calendar = NewCalendarService(env.orderRepo, testWorkload, months)
	env.orders = NewOrderService(db, env.orderRepo, env.loyalty, env.calendar, env.hub, env.mailer)
	return env
}

func (e *testEnv) category(t *testing.T, slug string) *models.Category {
	t.Helper()
	cat, err := e.catRepo.GetBySlug(context.Background(), slug)
	require.NoError(t, err)
	return cat
}

func (e *testEnv) createOrder(t *testing.T, req models.CreateOrderRequest) *models.Order {
	t.Helper()
	order, err := e.orders.Create(context.Background(), "admin-1", &req)
	require.NoError(t, err)
	return order
}

func (e *testEnv) setStatus(t *testing.T, orderID string, status models.OrderStatus) *models.StatusChangeResult {
	t.Helper()
	res, err := e.orders.UpdateStatus(context.Background(), orderID, "admin-1", &models.UpdateOrderStatusRequest{Status: status})
	require.NoError(t, err)
	return res
}

func (e *testEnv) customer(t *testing.T, phone string) *models.Customer {
	t.Helper()
	c, err := e.customers.GetByPhone(context.Background(), phone)
	require.NoError(t, err)
	return c
}

func cupcakeOrder(cat *models.Category, date string) models.CreateOrderRequest {
	return models.CreateOrderRequest{
		CustomerName:  "Ayşe Yılmaz",
		CustomerPhone: "0532 123 45 67",
		CustomerEmail: "ayse@example.com",
		CategoryID:    cat.ID,
		Quantity:      1,
		DeliveryDate:  date,
	}
}
