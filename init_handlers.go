// Package main: Handler katmanı başlatma.
//
// initHandlers, tüm HTTP handler'larını oluşturur.
// Handler'lar "thin"dir: sadece HTTP parse, service çağrısı ve yanıt yazımı.
package main

import (
	"github.com/akinalp/pastane/config"
	"github.com/akinalp/pastane/handlers"
	"github.com/akinalp/pastane/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Admin      *handlers.AdminHandler
	Category   *handlers.CategoryHandler
	Product    *handlers.ProductHandler
	Order      *handlers.OrderHandler
	Customer   *handlers.CustomerHandler
	Calendar   *handlers.CalendarHandler
	Contact    *handlers.ContactHandler
	Report     *handlers.ReportHandler
	Storefront *handlers.StorefrontHandler
	WS         *ws.Handler
}

func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub, cfg *config.Config) (*Handlers, error) {
	storefront, err := handlers.NewStorefrontHandler(
		svcs.Category, svcs.Product, svcs.Calendar,
		svcs.Contact, svcs.Customer, svcs.Report,
		svcs.Loyalty.GiftEvery,
	)
	if err != nil {
		return nil, err
	}

	return &Handlers{
		Auth:       handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Admin:      handlers.NewAdminHandler(svcs.Auth),
		Category:   handlers.NewCategoryHandler(svcs.Category),
		Product:    handlers.NewProductHandler(svcs.Product, svcs.Upload, cfg.Upload.MaxSize),
		Order:      handlers.NewOrderHandler(svcs.Order),
		Customer:   handlers.NewCustomerHandler(svcs.Customer),
		Calendar:   handlers.NewCalendarHandler(svcs.Calendar),
		Contact:    handlers.NewContactHandler(svcs.Contact),
		Report:     handlers.NewReportHandler(svcs.Report),
		Storefront: storefront,
		WS:         ws.NewHandler(hub, svcs.Auth, svcs.Contact, cfg.Server.CORSOrigins),
	}, nil
}
