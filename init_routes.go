// Package main: HTTP route registration.
//
// initRoutes, tüm endpoint'leri mux'a bağlar ve global middleware zincirini
// kurar. Chain helper'ları:
//   - public: IP başına rate limit (vitrin API'si)
//   - auth:   JWT doğrulaması
//   - owner:  auth + sahip rolü
package main

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/akinalp/pastane/config"
	"github.com/akinalp/pastane/handlers"
	"github.com/akinalp/pastane/middleware"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/crypto"
	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/metrics"
	"github.com/akinalp/pastane/static"
)

// initRoutes, mux'ı kurar ve middleware'lerle sarılmış kök handler'ı döner.
//
// Route sıralama kuralı: Go ServeMux en spesifik pattern'i seçer;
// "/api/admin/messages/unread" ile "/api/admin/messages/{id}" çakışmaz.
func initRoutes(h *Handlers, svcs *Services, limiters *RateLimiters, db *sql.DB, cfg *config.Config) (http.Handler, error) {
	csrfKey, err := csrfAuthKey(cfg.Security.CSRFKey)
	if err != nil {
		return nil, err
	}

	// ─── Middleware ───
	authMw := middleware.NewAuthMiddleware(svcs.Auth)
	rateMw := middleware.IPRateLimit(limiters.Public, "public")
	csrfMw := middleware.CSRF(csrfKey, cfg.Security.CSRFSecure)

	// ─── Middleware Chain Helpers ───
	public := func(handler http.HandlerFunc) http.Handler {
		return rateMw(handler)
	}
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}
	owner := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(middleware.RequireOwner(handler))
	}

	mux := http.NewServeMux()

	// ─── Altyapı ───
	mux.HandleFunc("GET /healthz", handlers.NewHealthHandler(db).Check)
	mux.Handle("GET /metrics", metrics.Handler())
	// WebSocket: tarayıcı upgrade isteğinde header gönderemez, token query'de
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)

	// ─── Vitrin API (/api/v1) ───
	mux.Handle("GET /api/v1/categories", public(h.Category.PublicList))
	mux.Handle("GET /api/v1/products", public(h.Product.PublicList))
	mux.Handle("GET /api/v1/products/{slug}", public(h.Product.PublicGet))
	mux.Handle("GET /api/v1/calendar", public(h.Calendar.Month))
	mux.Handle("GET /api/v1/calendar/{date}", public(h.Calendar.PublicDay))
	mux.Handle("POST /api/v1/contact", public(h.Contact.Submit))
	mux.Handle("POST /api/v1/loyalty", public(h.Customer.LoyaltyLookup))
	mux.Handle("GET /api/v1/stats", public(h.Report.PublicStats))

	// ─── Auth ───
	mux.Handle("POST /api/auth/login", public(h.Auth.Login))
	mux.Handle("POST /api/auth/2fa", public(h.Auth.VerifyTwoFactor))
	mux.Handle("POST /api/auth/refresh", public(h.Auth.Refresh))
	mux.Handle("POST /api/auth/logout", public(h.Auth.Logout))
	mux.Handle("GET /api/auth/me", auth(h.Auth.Me))

	// ─── Panel: hesap ───
	mux.Handle("POST /api/admin/password", auth(h.Auth.ChangePassword))
	mux.Handle("POST /api/admin/2fa/setup", auth(h.Auth.SetupTwoFactor))
	mux.Handle("POST /api/admin/2fa/enable", auth(h.Auth.EnableTwoFactor))
	mux.Handle("POST /api/admin/2fa/disable", auth(h.Auth.DisableTwoFactor))

	mux.Handle("GET /api/admin/admins", owner(h.Admin.List))
	mux.Handle("POST /api/admin/admins", owner(h.Admin.Create))
	mux.Handle("DELETE /api/admin/admins/{id}", owner(h.Admin.Delete))

	// ─── Panel: katalog ───
	mux.Handle("GET /api/admin/categories", auth(h.Category.List))
	mux.Handle("POST /api/admin/categories", auth(h.Category.Create))
	mux.Handle("PATCH /api/admin/categories/{id}", auth(h.Category.Update))
	mux.Handle("DELETE /api/admin/categories/{id}", auth(h.Category.Delete))

	mux.Handle("GET /api/admin/products", auth(h.Product.List))
	mux.Handle("POST /api/admin/products", auth(h.Product.Create))
	mux.Handle("GET /api/admin/products/{id}", auth(h.Product.Get))
	mux.Handle("PATCH /api/admin/products/{id}", auth(h.Product.Update))
	mux.Handle("DELETE /api/admin/products/{id}", auth(h.Product.Delete))
	mux.Handle("POST /api/admin/products/{id}/image", auth(h.Product.UploadImage))
	mux.Handle("DELETE /api/admin/products/{id}/image", auth(h.Product.RemoveImage))

	// ─── Panel: siparişler ve müşteriler ───
	mux.Handle("GET /api/admin/orders", auth(h.Order.List))
	mux.Handle("POST /api/admin/orders", auth(h.Order.Create))
	mux.Handle("GET /api/admin/order-numbers/{number}", auth(h.Order.GetByNumber))
	mux.Handle("GET /api/admin/orders/{id}", auth(h.Order.Get))
	mux.Handle("PATCH /api/admin/orders/{id}", auth(h.Order.Update))
	mux.Handle("PATCH /api/admin/orders/{id}/status", auth(h.Order.UpdateStatus))
	mux.Handle("DELETE /api/admin/orders/{id}", auth(h.Order.Delete))
	mux.Handle("GET /api/admin/orders/{id}/history", auth(h.Order.History))

	mux.Handle("GET /api/admin/customers", auth(h.Customer.List))
	mux.Handle("GET /api/admin/customers/{id}", auth(h.Customer.Get))
	mux.Handle("PATCH /api/admin/customers/{id}", auth(h.Customer.Update))
	mux.Handle("GET /api/admin/customers/{id}/orders", auth(h.Customer.Orders))

	mux.Handle("GET /api/admin/calendar", auth(h.Calendar.Month))
	mux.Handle("GET /api/admin/calendar/{date}", auth(h.Calendar.Day))

	// ─── Panel: mesajlar ───
	mux.Handle("GET /api/admin/messages", auth(h.Contact.List))
	mux.Handle("GET /api/admin/messages/unread", auth(h.Contact.UnreadCount))
	mux.Handle("GET /api/admin/messages/{id}", auth(h.Contact.Get))
	mux.Handle("PATCH /api/admin/messages/{id}", auth(h.Contact.MarkRead))
	mux.Handle("DELETE /api/admin/messages/{id}", auth(h.Contact.Delete))

	// ─── Panel: raporlar (sadece sahip) ───
	mux.Handle("GET /api/admin/reports/summary", owner(h.Report.Summary))
	mux.Handle("GET /api/admin/reports/daily", owner(h.Report.Daily))
	mux.Handle("GET /api/admin/reports/monthly", owner(h.Report.Monthly))
	mux.Handle("GET /api/admin/reports/categories", owner(h.Report.ByCategory))
	mux.Handle("GET /api/admin/reports/customers", owner(h.Report.TopCustomers))
	mux.Handle("GET /api/admin/reports/export", owner(h.Report.Export))

	// Tanımsız API yolları vitrin sayfasına değil JSON 404'e düşer
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		pkg.ErrorWithMessage(w, http.StatusNotFound, "endpoint not found")
	})

	// ─── Statik dosyalar ───
	assets, err := fs.Sub(static.Assets, "assets")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded assets: %w", err)
	}
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(assets)))

	// Ürün görselleri: sadece düz dosya isimleri, alt dizin yok
	uploads := http.FileServer(http.Dir(cfg.Upload.Dir))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.ContainsAny(r.URL.Path, `/\`) || strings.HasPrefix(r.URL.Path, ".") {
			http.NotFound(w, r)
			return
		}
		uploads.ServeHTTP(w, r)
	})))

	// ─── Vitrin (HTML) ───
	// Eşleşmeyen her yol vitrine düşer; formlar CSRF korumalı
	mux.Handle("/", csrfMw(h.Storefront.Routes()))

	// ─── Global zincir ───
	// InstrumentHandler route etiketi için mux'ı doğrudan sarar
	var handler http.Handler = metrics.InstrumentHandler(mux)
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.CORS(cfg.Server.CORSOrigins)(handler)
	handler = middleware.AccessLog(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recover(handler)
	return handler, nil
}

// csrfAuthKey, CSRF_KEY'i 32 byte'a çevirir. Boşsa rastgele anahtar üretilir;
// bu durumda yeniden başlatma açık formların token'larını geçersiz kılar.
func csrfAuthKey(hexKey string) ([]byte, error) {
	if hexKey != "" {
		key, err := crypto.DeriveKey(hexKey)
		if err != nil {
			return nil, fmt.Errorf("invalid CSRF_KEY: %w", err)
		}
		return key, nil
	}

	logger.Named("main").Warn("CSRF_KEY not set, using a random key for this process")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate csrf key: %w", err)
	}
	return key, nil
}
