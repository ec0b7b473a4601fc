package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/i18n"
	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/ratelimit"
	"github.com/akinalp/pastane/services"
	"github.com/akinalp/pastane/static"
)

// langCookie, ?lang= ile seçilen dilin saklandığı cookie.
const langCookie = "lang"

var storefrontPages = []string{"home", "products", "product", "calendar", "contact", "loyalty", "error"}

var weekdayKeys = []string{
	"weekday.mon", "weekday.tue", "weekday.wed", "weekday.thu",
	"weekday.fri", "weekday.sat", "weekday.sun",
}

// StorefrontHandler, müşterilerin gördüğü HTML sayfalar.
//
// Her sayfa layout.html ile kendi şablon setine sahiptir; "content" bloğunu
// sayfa tanımlar. Formlar gorilla/csrf ile korunur, CSRF middleware'i
// route'lar kaydedilirken sarılır.
type StorefrontHandler struct {
	categoryService services.CategoryService
	productService  services.ProductService
	calendarService services.CalendarService
	contactService  services.ContactService
	customerService services.CustomerService
	reportService   services.ReportService
	giftEvery       int
	pages           map[string]*template.Template
	log             *zap.Logger
	now             func() time.Time
}

func NewStorefrontHandler(
	categoryService services.CategoryService,
	productService services.ProductService,
	calendarService services.CalendarService,
	contactService services.ContactService,
	customerService services.CustomerService,
	reportService services.ReportService,
	giftEvery int,
) (*StorefrontHandler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &StorefrontHandler{
		categoryService: categoryService,
		productService:  productService,
		calendarService: calendarService,
		contactService:  contactService,
		customerService: customerService,
		reportService:   reportService,
		giftEvery:       giftEvery,
		pages:           pages,
		log:             logger.Named("storefront"),
		now:             time.Now,
	}, nil
}

var templateFuncs = template.FuncMap{
	"price": func(d decimal.Decimal) string {
		return d.StringFixed(2) + " ₺"
	},
	// params, çeviri yer tutucuları için anahtar/değer çiftlerinden map kurar.
	"params": func(kv ...any) map[string]string {
		out := make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			out[fmt.Sprint(kv[i])] = fmt.Sprint(kv[i+1])
		}
		return out
	},
	"dayOfMonth": func(date string) string {
		t, err := time.Parse(models.DateLayout, date)
		if err != nil {
			return date
		}
		return fmt.Sprint(t.Day())
	},
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(storefrontPages))
	for _, name := range storefrontPages {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(static.Templates,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// pageData, layout ve sayfa şablonlarına geçen ortak veri.
type pageData struct {
	L         *i18n.Localizer
	Lang      string
	Page      string
	Path      string
	Title     string
	Year      int
	CSRFField template.HTML
	Flash     string
	Error     string
	Data      any
}

// Routes, vitrin route'larını kendi mux'ında toplar. Eşleşmeyen her yol
// vitrinin 404 sayfasına düşer.
func (h *StorefrontHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /urunler", h.Products)
	mux.HandleFunc("GET /urunler/{slug}", h.Product)
	mux.HandleFunc("GET /takvim", h.Calendar)
	mux.HandleFunc("GET /iletisim", h.ContactForm)
	mux.HandleFunc("POST /iletisim", h.ContactSubmit)
	mux.HandleFunc("GET /sadakat", h.LoyaltyForm)
	mux.HandleFunc("POST /sadakat", h.LoyaltySubmit)
	mux.HandleFunc("/", h.NotFound)
	return mux
}

// localizer, dili ?lang=, cookie ve Accept-Language sırasıyla seçer.
// ?lang= geçerliyse cookie'ye yazılır.
func (h *StorefrontHandler) localizer(w http.ResponseWriter, r *http.Request) *i18n.Localizer {
	query := strings.ToLower(r.URL.Query().Get("lang"))
	if i18n.IsSupported(query) {
		http.SetCookie(w, &http.Cookie{
			Name:     langCookie,
			Value:    query,
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	} else if c, err := r.Cookie(langCookie); err == nil {
		query = c.Value
	}
	return i18n.NewLocalizer(i18n.Resolve(query, r.Header.Get("Accept-Language")))
}

func (h *StorefrontHandler) newPage(w http.ResponseWriter, r *http.Request, page string) *pageData {
	loc := h.localizer(w, r)
	return &pageData{
		L:         loc,
		Lang:      loc.Lang(),
		Page:      page,
		Path:      r.URL.Path,
		Year:      h.now().Year(),
		CSRFField: csrf.TemplateField(r),
	}
}

// render, şablonu önce buffer'a yazar; yarım sayfa gönderilmez.
func (h *StorefrontHandler) render(w http.ResponseWriter, status int, data *pageData) {
	tmpl, ok := h.pages[data.Page]
	if !ok {
		h.log.Error("unknown page", zap.String("page", data.Page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.Error("failed to render page", zap.String("page", data.Page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// fail, service hatasını hata sayfası olarak yazar.
func (h *StorefrontHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := pkg.StatusOf(err)
	data := h.newPage(w, r, "error")
	switch status {
	case http.StatusNotFound:
		data.Title = data.L.T("error.notFound")
	case http.StatusInternalServerError:
		h.log.Error("storefront request failed", zap.String("path", r.URL.Path), zap.Error(err))
		data.Title = data.L.T("error.generic")
	default:
		data.Title = data.L.TWithParams("error.invalid", map[string]string{"detail": errorDetail(err)})
	}
	h.render(w, status, data)
}

// errorDetail, sentinel önekini atıp kullanıcıya gösterilecek kısmı döner.
func errorDetail(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{pkg.ErrBadRequest, pkg.ErrNotFound, pkg.ErrTooManyRequests, pkg.ErrConflict} {
		if errors.Is(err, sentinel) {
			return strings.TrimPrefix(msg, sentinel.Error()+": ")
		}
	}
	return msg
}

type homePage struct {
	Featured   []models.Product
	Categories []models.Category
	Stats      *models.PublicStats
}

// Home godoc
// GET /
func (h *StorefrontHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	featured, err := h.productService.List(ctx, models.ProductFilter{OnlyActive: true, OnlyFeatured: true})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	categories, err := h.categoryService.List(ctx, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// Sayaçlar olmadan da sayfa gösterilebilir
	stats, err := h.reportService.PublicStats(ctx)
	if err != nil {
		h.log.Warn("failed to load public stats", zap.Error(err))
	}

	data := h.newPage(w, r, "home")
	data.Title = data.L.T("nav.home")
	data.Data = homePage{Featured: featured, Categories: categories, Stats: stats}
	h.render(w, http.StatusOK, data)
}

type productsPage struct {
	Categories []models.Category
	Current    *models.Category
	Products   []models.Product
}

// Products godoc
// GET /urunler?kategori=pastalar
func (h *StorefrontHandler) Products(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.categoryService.List(ctx, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filter := models.ProductFilter{OnlyActive: true}
	var current *models.Category
	if slug := r.URL.Query().Get("kategori"); slug != "" {
		current, err = h.categoryService.GetBySlug(ctx, slug)
		if err == nil && !current.IsActive {
			err = fmt.Errorf("%w: category not found", pkg.ErrNotFound)
		}
		if err != nil {
			h.fail(w, r, err)
			return
		}
		filter.CategoryID = current.ID
	}

	products, err := h.productService.List(ctx, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := h.newPage(w, r, "products")
	data.Title = data.L.T("products.title")
	if current != nil {
		data.Title = current.Name
	}
	data.Data = productsPage{Categories: categories, Current: current, Products: products}
	h.render(w, http.StatusOK, data)
}

// Product godoc
// GET /urunler/{slug}
func (h *StorefrontHandler) Product(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.GetBySlug(r.Context(), r.PathValue("slug"))
	if err == nil && !product.IsActive {
		err = fmt.Errorf("%w: product not found", pkg.ErrNotFound)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := h.newPage(w, r, "product")
	data.Title = product.Name
	data.Data = product
	h.render(w, http.StatusOK, data)
}

type calendarPage struct {
	Month    *models.CalendarMonth
	Weeks    [][]*models.CalendarDay
	Weekdays []string
	Prev     string
	Next     string
}

// Calendar godoc
// GET /takvim?ay=2026-10
func (h *StorefrontHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("ay")
	if month == "" {
		month = h.now().Format(models.MonthLayout)
	}

	cal, err := h.calendarService.Month(r.Context(), month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	first, err := time.Parse(models.MonthLayout, cal.Month)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data := h.newPage(w, r, "calendar")
	data.Title = data.L.T("calendar.title")
	data.Data = calendarPage{
		Month:    cal,
		Weeks:    calendarWeeks(cal.Days),
		Weekdays: weekdayKeys,
		Prev:     first.AddDate(0, -1, 0).Format(models.MonthLayout),
		Next:     first.AddDate(0, 1, 0).Format(models.MonthLayout),
	}
	h.render(w, http.StatusOK, data)
}

// calendarWeeks, günleri Pazartesi ile başlayan haftalara böler. Ayın
// dışında kalan hücreler nil'dir.
func calendarWeeks(days []models.CalendarDay) [][]*models.CalendarDay {
	if len(days) == 0 {
		return nil
	}

	// Weekday 0 = Pazar; Pazartesi başlangıçlı sütun indeksine çevir
	offset := (days[0].Weekday + 6) % 7
	cells := make([]*models.CalendarDay, offset, offset+len(days)+6)
	for i := range days {
		cells = append(cells, &days[i])
	}
	for len(cells)%7 != 0 {
		cells = append(cells, nil)
	}

	weeks := make([][]*models.CalendarDay, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// ContactForm godoc
// GET /iletisim
// Başarılı gönderimden sonra ?gonderildi=1 ile geri dönülür.
func (h *StorefrontHandler) ContactForm(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(w, r, "contact")
	data.Title = data.L.T("contact.title")
	data.Data = &models.CreateContactMessageRequest{}
	if r.URL.Query().Get("gonderildi") == "1" {
		data.Flash = data.L.T("contact.success")
	}
	h.render(w, http.StatusOK, data)
}

// ContactSubmit godoc
// POST /iletisim
func (h *StorefrontHandler) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: invalid form", pkg.ErrBadRequest))
		return
	}

	req := &models.CreateContactMessageRequest{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Phone:   r.PostForm.Get("phone"),
		Subject: r.PostForm.Get("subject"),
		Body:    r.PostForm.Get("body"),
		Website: r.PostForm.Get("website"),
	}

	_, err := h.contactService.Submit(r.Context(), req, ratelimit.ClientIP(r))
	if err == nil {
		http.Redirect(w, r, "/iletisim?gonderildi=1", http.StatusSeeOther)
		return
	}

	data := h.newPage(w, r, "contact")
	data.Title = data.L.T("contact.title")
	data.Data = req
	switch {
	case errors.Is(err, pkg.ErrTooManyRequests):
		data.Error = data.L.T("contact.rateLimited")
	case errors.Is(err, pkg.ErrBadRequest):
		data.Error = data.L.TWithParams("error.invalid", map[string]string{"detail": errorDetail(err)})
	default:
		h.fail(w, r, err)
		return
	}
	h.render(w, pkg.StatusOf(err), data)
}

type loyaltyPage struct {
	GiftEvery int
	Phone     string
	Progress  *models.LoyaltyProgress
}

// LoyaltyForm godoc
// GET /sadakat
func (h *StorefrontHandler) LoyaltyForm(w http.ResponseWriter, r *http.Request) {
	data := h.newPage(w, r, "loyalty")
	data.Title = data.L.T("loyalty.title")
	data.Data = loyaltyPage{GiftEvery: h.giftEvery}
	h.render(w, http.StatusOK, data)
}

// LoyaltySubmit godoc
// POST /sadakat
// Telefon numarası URL'de görünmesin diye sorgu POST ile yapılır.
func (h *StorefrontHandler) LoyaltySubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: invalid form", pkg.ErrBadRequest))
		return
	}
	phone := strings.TrimSpace(r.PostForm.Get("phone"))

	progress, err := h.customerService.LoyaltyLookup(r.Context(), phone, ratelimit.ClientIP(r))

	data := h.newPage(w, r, "loyalty")
	data.Title = data.L.T("loyalty.title")
	page := loyaltyPage{GiftEvery: h.giftEvery, Phone: phone}
	switch {
	case err == nil:
		page.Progress = progress
	case errors.Is(err, pkg.ErrNotFound):
		data.Error = data.L.T("loyalty.notFound")
	case errors.Is(err, pkg.ErrBadRequest):
		data.Error = data.L.TWithParams("error.invalid", map[string]string{"detail": errorDetail(err)})
	case errors.Is(err, pkg.ErrTooManyRequests):
		data.Error = data.L.T("loyalty.rateLimited")
	default:
		h.fail(w, r, err)
		return
	}
	data.Data = page

	status := http.StatusOK
	if err != nil {
		status = pkg.StatusOf(err)
	}
	h.render(w, status, data)
}

// NotFound godoc
// Vitrinde eşleşmeyen her yol.
func (h *StorefrontHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.fail(w, r, fmt.Errorf("%w: page", pkg.ErrNotFound))
}
