package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg/ratelimit"
)

// asAdmin, route'ları kimlik doğrulaması yapılmış gibi çalıştırır.
func asAdmin(admin *models.Admin, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, withAdmin(r, admin))
	})
}

func do(h http.Handler, method, target string, body *strings.Reader) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOrderHandler_Lifecycle(t *testing.T) {
	app := newTestApp(t, nil)
	h := NewOrderHandler(app.orders)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/orders", h.Create)
	mux.HandleFunc("GET /api/admin/orders", h.List)
	mux.HandleFunc("GET /api/admin/orders/{id}", h.Get)
	mux.HandleFunc("PATCH /api/admin/orders/{id}/status", h.UpdateStatus)
	mux.HandleFunc("GET /api/admin/orders/{id}/history", h.History)
	mux.HandleFunc("DELETE /api/admin/orders/{id}", h.Delete)
	srv := asAdmin(app.owner(t), mux)

	cake := app.category(t, "yas-pasta")
	create := func(quantity int, force bool) *httptest.ResponseRecorder {
		return do(srv, http.MethodPost, "/api/admin/orders", strings.NewReader(`{
			"customer_name": "Mehmet Kaya",
			"customer_phone": "0533 222 33 44",
			"category_id": "`+cake.ID+`",
			"quantity": `+strconv.Itoa(quantity)+`,
			"delivery_date": "2030-06-14",
			"force": `+strconv.FormatBool(force)+`
		}`))
	}

	rec := create(2, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order models.Order
	resp := decodeData(t, rec, &order)
	assert.True(t, resp.Success)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "SP-"))

	t.Run("capacity", func(t *testing.T) {
		// 20 + 70 Puan, 80'lik dolu eşiğini aşar
		rec := create(7, false)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = create(7, true)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	rec = do(srv, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", strings.NewReader(`{"status":"tamamlandi"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result models.StatusChangeResult
	decodeData(t, rec, &result)
	assert.Equal(t, models.OrderStatusCompleted, result.Order.Status)
	assert.Equal(t, 1, result.Customer.CompletedOrders)
	assert.False(t, result.GiftGranted)

	rec = do(srv, http.MethodPatch, "/api/admin/orders/"+order.ID+"/status", strings.NewReader(`{"status":"tamamlandi"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(srv, http.MethodGet, "/api/admin/orders/"+order.ID+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.OrderStatusChange
	decodeData(t, rec, &history)
	assert.NotEmpty(t, history)

	rec = do(srv, http.MethodGet, "/api/admin/orders?status=tamamlandi", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.OrderList
	decodeData(t, rec, &list)
	assert.Equal(t, 1, list.Total)

	rec = do(srv, http.MethodDelete, "/api/admin/orders/"+order.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(srv, http.MethodGet, "/api/admin/orders/"+order.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	t.Run("without admin", func(t *testing.T) {
		rec := do(mux, http.MethodPost, "/api/admin/orders", strings.NewReader(`{}`))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCategoryHandler(t *testing.T) {
	app := newTestApp(t, nil)
	h := NewCategoryHandler(app.categories)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/categories", h.PublicList)
	mux.HandleFunc("POST /api/admin/categories", h.Create)
	mux.HandleFunc("DELETE /api/admin/categories/{id}", h.Delete)

	rec := do(mux, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []models.Category
	decodeData(t, rec, &cats)
	assert.Len(t, cats, 4)

	rec = do(mux, http.MethodPost, "/api/admin/categories", strings.NewReader(`{"name":"Ekler","workload_points":1}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Category
	decodeData(t, rec, &created)
	assert.Equal(t, "ekler", created.Slug)

	rec = do(mux, http.MethodPost, "/api/admin/categories", strings.NewReader(`{"name":"EKLER"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(mux, http.MethodPost, "/api/admin/categories", strings.NewReader(`{"name":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeData(t, rec, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid request body", resp.Error)

	rec = do(mux, http.MethodDelete, "/api/admin/categories/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductHandler_PublicGet(t *testing.T) {
	app := newTestApp(t, nil)
	h := NewProductHandler(app.products, app.uploads, 1<<20)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/products", h.PublicList)
	mux.HandleFunc("GET /api/v1/products/{slug}", h.PublicGet)
	mux.HandleFunc("POST /api/admin/products", h.Create)

	cat := app.category(t, "butik-kurabiye")
	rec := do(mux, http.MethodPost, "/api/admin/products", strings.NewReader(
		`{"category_id":"`+cat.ID+`","name":"Bebek Kurabiyesi","price":"35.00","is_active":false}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(mux, http.MethodGet, "/api/v1/products/bebek-kurabiyesi", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(mux, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var products []models.Product
	decodeData(t, rec, &products)
	assert.Empty(t, products)
}

func TestCustomerHandler_LoyaltyLookup(t *testing.T) {
	app := newTestApp(t, nil)
	h := NewCustomerHandler(app.customers)

	rec := do(http.HandlerFunc(h.LoyaltyLookup), http.MethodPost, "/api/v1/loyalty", strings.NewReader(`{"phone":"0532 999 88 77"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.HandlerFunc(h.LoyaltyLookup), http.MethodPost, "/api/v1/loyalty", strings.NewReader(`{"phone":"12"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := app.orders.Create(context.Background(), "admin-1", &models.CreateOrderRequest{
		CustomerName:  "Zeynep Demir",
		CustomerPhone: "0532 999 88 77",
		CategoryID:    app.category(t, "cupcake").ID,
		Quantity:      3,
		DeliveryDate:  "2030-06-20",
	})
	require.NoError(t, err)

	rec = do(http.HandlerFunc(h.LoyaltyLookup), http.MethodPost, "/api/v1/loyalty", strings.NewReader(`{"phone":"5329998877"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	var progress models.LoyaltyProgress
	decodeData(t, rec, &progress)
	assert.Equal(t, "Z***** D****", progress.MaskedName)
	assert.Equal(t, 0, progress.CompletedOrders)
	assert.Equal(t, 5, progress.UntilNextGift)
}

func TestContactHandler(t *testing.T) {
	app := newTestApp(t, nil)
	h := NewContactHandler(app.contact)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/contact", h.Submit)
	mux.HandleFunc("GET /api/admin/messages", h.List)
	mux.HandleFunc("GET /api/admin/messages/unread", h.UnreadCount)
	mux.HandleFunc("PATCH /api/admin/messages/{id}", h.MarkRead)

	body := `{"name":"Can Öz","email":"can@example.com","body":"Vegan pasta yapıyor musunuz?"%s}`
	rec := do(mux, http.MethodPost, "/api/v1/contact", strings.NewReader(fmt.Sprintf(body, "")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Honeypot dolu: gönderen yine 201 görür ama mesaj spam'e düşer
	rec = do(mux, http.MethodPost, "/api/v1/contact", strings.NewReader(fmt.Sprintf(body, `,"website":"http://spam.example"`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(mux, http.MethodPost, "/api/v1/contact", strings.NewReader(`{"name":"C","email":"x","body":"kısa"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(mux, http.MethodGet, "/api/admin/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.ContactMessageList
	decodeData(t, rec, &list)
	require.Len(t, list.Messages, 1)
	assert.Equal(t, "Can Öz", list.Messages[0].Name)

	rec = do(mux, http.MethodGet, "/api/admin/messages?spam=true", nil)
	decodeData(t, rec, &list)
	assert.Len(t, list.Messages, 2)

	rec = do(mux, http.MethodPatch, "/api/admin/messages/"+list.Messages[0].ID, strings.NewReader(`{"is_read":true}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(mux, http.MethodGet, "/api/admin/messages/unread", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var unread map[string]int
	decodeData(t, rec, &unread)
	assert.Contains(t, unread, "unread")
}

func TestAuthHandler_Login(t *testing.T) {
	app := newTestApp(t, nil)
	limiter := ratelimit.NewLoginRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)
	h := NewAuthHandler(app.auth, limiter)

	login := func(pw string) *httptest.ResponseRecorder {
		return do(http.HandlerFunc(h.Login), http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"username":"`+testOwner+`","password":"`+pw+`"}`))
	}

	rec := login(testPassword)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result models.LoginResult
	decodeData(t, rec, &result)
	require.NotNil(t, result.Tokens)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.False(t, result.RequiresTwoFactor)

	t.Run("me", func(t *testing.T) {
		rec := do(asAdmin(app.owner(t), http.HandlerFunc(h.Me)), http.MethodGet, "/api/auth/me", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var me models.Admin
		decodeData(t, rec, &me)
		assert.Equal(t, testOwner, me.Username)
	})

	// Başarılı giriş sayacı sıfırladı; iki hatalı deneme hakkı var
	assert.Equal(t, http.StatusUnauthorized, login("yanlis").Code)
	assert.Equal(t, http.StatusUnauthorized, login("yanlis").Code)

	rec = login(testPassword)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestAuthHandler_LoginIgnoresForwardedHeaderFromUntrustedPeer(t *testing.T) {
	app := newTestApp(t, nil)
	limiter := ratelimit.NewLoginRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)
	h := NewAuthHandler(app.auth, limiter)

	codes := map[int]int{}
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"username":"`+testOwner+`","password":"yanlis"}`))
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i))
		rec := httptest.NewRecorder()
		h.Login(rec, req)
		codes[rec.Code]++
	}

	assert.Equal(t, 2, codes[http.StatusUnauthorized])
	assert.Equal(t, 8, codes[http.StatusTooManyRequests])
}

func TestReportHandler_Export(t *testing.T) {
	app := newTestApp(t, nil)
	h := NewReportHandler(app.reports)

	rec := do(http.HandlerFunc(h.Export), http.MethodGet, "/api/admin/reports/export?from=2030-05-01&to=2030-05-31", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="satis-2030-05-01_2030-05-31.xlsx"`, rec.Header().Get("Content-Disposition"))
	// xlsx bir zip arşividir
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))

	rec = do(http.HandlerFunc(h.Export), http.MethodGet, "/api/admin/reports/export?from=2030-06-01&to=2030-05-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	rec := do(http.HandlerFunc(NewHealthHandler(stubPinger{}).Check), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.HandlerFunc(NewHealthHandler(stubPinger{err: errors.New("closed")}).Check), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v map[string]string
		if decodeJSON(w, r, &v) {
			w.WriteHeader(http.StatusNoContent)
		}
	})

	big := `{"a":"` + strings.Repeat("x", maxJSONBody) + `"}`
	rec := do(handler, http.MethodPost, "/", strings.NewReader(big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(handler, http.MethodPost, "/", strings.NewReader(`{"a":"b"}`))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
