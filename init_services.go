// Package main: Service katmanı başlatma.
//
// initServices, tüm service implementasyonlarını oluşturur.
// Her service, ihtiyaç duyduğu repository interface'lerini ve diğer
// dependency'leri constructor injection ile alır.
//
// Sıralama: CalendarService, OrderService ve CategoryService'ten önce
// oluşturulur; ikisi de takvim önbelleğini geçersiz kılar.
package main

import (
	"database/sql"
	"time"

	"github.com/akinalp/pastane/config"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg/cache"
	"github.com/akinalp/pastane/pkg/crypto"
	"github.com/akinalp/pastane/pkg/email"
	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/password"
	"github.com/akinalp/pastane/pkg/ratelimit"
	"github.com/akinalp/pastane/services"
	"github.com/akinalp/pastane/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth     services.AuthService
	Category services.CategoryService
	Product  services.ProductService
	Upload   services.UploadService
	Calendar services.CalendarService
	Order    services.OrderService
	Customer services.CustomerService
	Contact  services.ContactService
	Report   services.ReportService
	Mailer   email.Sender
	Loyalty  services.Loyalty
}

// RateLimiters, tüm rate limiter instance'larını tutan container.
type RateLimiters struct {
	Login   *ratelimit.LoginRateLimiter
	Public  *ratelimit.IPLimiter
	Contact *ratelimit.IPLimiter
	Loyalty *ratelimit.IPLimiter
}

// Stop, limiter'ların temizlik goroutine'lerini durdurur.
func (l *RateLimiters) Stop() {
	l.Login.Stop()
	l.Public.Stop()
	l.Contact.Stop()
	l.Loyalty.Stop()
}

// Caches, süreli bellek önbellekleri.
type Caches struct {
	Catalog *services.CatalogCache
	Months  *cache.TTLCache[string, *models.CalendarMonth]
	Stats   *cache.TTLCache[string, *models.PublicStats]
}

func (c *Caches) Close() {
	c.Catalog.Close()
	c.Months.Close()
	c.Stats.Close()
}

func initServices(db *sql.DB, repos *Repositories, hub ws.EventPublisher, cfg *config.Config, box *crypto.Box) (*Services, *RateLimiters, *Caches, error) {
	log := logger.Named("main")

	// ─── Önbellekler ───
	caches := &Caches{
		Catalog: services.NewCatalogCache(5 * time.Minute),
		Months:  cache.New[string, *models.CalendarMonth](2*time.Minute, time.Minute),
		Stats:   cache.New[string, *models.PublicStats](10*time.Minute, 5*time.Minute),
	}

	// ─── Rate limiter'lar ───
	limiters := &RateLimiters{
		Login: ratelimit.NewLoginRateLimiter(
			cfg.Security.LoginMaxAttempts,
			time.Duration(cfg.Security.LoginWindowMin)*time.Minute,
		),
		Public:  ratelimit.NewIPLimiter(cfg.Security.PublicRatePerMin, cfg.Security.PublicBurst, 10*time.Minute),
		Contact: ratelimit.NewIPLimiter(cfg.Security.ContactRatePerMin, 1, 30*time.Minute),
		Loyalty: ratelimit.NewIPLimiter(cfg.Security.LoyaltyRatePerMin, cfg.Security.LoyaltyBurst, 30*time.Minute),
	}

	// ─── E-posta ───
	var mailer email.Sender
	if cfg.Email.ResendAPIKey != "" && cfg.Email.NotifyTo != "" {
		mailer = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.NotifyTo, cfg.Server.PublicURL)
	} else {
		log.Warn("RESEND_API_KEY or EMAIL_NOTIFY_TO not set, emails are only logged")
		mailer = email.NewNopSender()
	}

	images, err := services.NewImageStore(cfg.Upload.Dir, cfg.Upload.MaxSize)
	if err != nil {
		limiters.Stop()
		caches.Close()
		return nil, nil, nil, err
	}

	loyalty := services.Loyalty{GiftEvery: cfg.Loyalty.GiftEvery}
	calendar := services.NewCalendarService(repos.Order, services.NewWorkload(cfg.Workload), caches.Months)

	svcs := &Services{
		Auth: services.NewAuthService(
			repos.Admin, repos.Session, hub, box,
			password.DefaultPolicy, cfg.JWT, cfg.Security.TOTPIssuer,
		),
		Category: services.NewCategoryService(repos.Category, caches.Catalog, calendar, hub),
		Product:  services.NewProductService(repos.Product, repos.Category, images, caches.Catalog, hub),
		Upload:   services.NewUploadService(repos.Product, images, caches.Catalog, hub),
		Calendar: calendar,
		Order:    services.NewOrderService(db, repos.Order, loyalty, calendar, hub, mailer),
		Customer: services.NewCustomerService(repos.Customer, repos.Order, loyalty, limiters.Loyalty),
		Contact:  services.NewContactService(repos.Contact, limiters.Contact, mailer, hub),
		Report:   services.NewReportService(repos.Report, repos.Customer, caches.Stats),
		Mailer:   mailer,
		Loyalty:  loyalty,
	}
	return svcs, limiters, caches, nil
}
