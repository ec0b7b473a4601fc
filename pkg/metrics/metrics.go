// Package metrics, Prometheus sayaçları: HTTP istekleri ve iş olayları
// (sipariş, hediye, iletişim mesajı, giriş denemesi).
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pastane"

var (
	// Registry, uygulamaya ait collector'lar. /metrics bunu yayınlar.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	ordersCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders created, labelled by whether a gift was redeemed.",
	}, []string{"gift"})

	orderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "status_transitions_total",
		Help:      "Order status changes.",
	}, []string{"from", "to"})

	loyaltyEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loyalty",
		Name:      "events_total",
		Help:      "Loyalty counter changes (granted, revoked, redeemed, refunded).",
	}, []string{"event"})

	contactMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "contact",
		Name:      "messages_total",
		Help:      "Contact form submissions.",
	}, []string{"spam"})

	loginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Admin login attempts by result.",
	}, []string{"result"})

	rateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by a rate limiter.",
	}, []string{"limiter"})

	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "connections",
		Help:      "Open admin WebSocket connections.",
	})

	jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Scheduled job runs.",
	}, []string{"job", "success"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ordersCreated,
		orderTransitions,
		loyaltyEvents,
		contactMessages,
		loginAttempts,
		rateLimited,
		wsConnections,
		jobRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler, /metrics endpoint'i.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler, HTTP isteklerini sayar ve süresini ölçer. Route etiketi
// ServeMux'un eşleştirdiği pattern'dir ("GET /api/v1/products/{slug}");
// bu yüzden mux'ı doğrudan sarmalıdır.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routeLabel(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// OrderCreated, yeni sipariş.
func OrderCreated(gift bool) {
	ordersCreated.WithLabelValues(strconv.FormatBool(gift)).Inc()
}

// OrderTransition, durum değişikliği.
func OrderTransition(from, to string) {
	orderTransitions.WithLabelValues(from, to).Inc()
}

// Loyalty olay adları.
const (
	LoyaltyGranted  = "granted"
	LoyaltyRevoked  = "revoked"
	LoyaltyRedeemed = "redeemed"
	LoyaltyRefunded = "refunded"
)

// LoyaltyEvent, sadakat sayacı değişikliği.
func LoyaltyEvent(event string) {
	loyaltyEvents.WithLabelValues(event).Inc()
}

// ContactMessage, iletişim formu gönderimi.
func ContactMessage(spam bool) {
	contactMessages.WithLabelValues(strconv.FormatBool(spam)).Inc()
}

// LoginAttempt, result: "success", "invalid", "2fa_required", "2fa_invalid", "limited".
func LoginAttempt(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// RateLimited, limiter'ın reddettiği istek.
func RateLimited(limiter string) {
	rateLimited.WithLabelValues(limiter).Inc()
}

// WSConnected, yeni admin WebSocket bağlantısı.
func WSConnected() { wsConnections.Inc() }

// WSDisconnected, kapanan bağlantı.
func WSDisconnected() { wsConnections.Dec() }

// JobRun, zamanlanmış görev sonucu.
func JobRun(job string, success bool) {
	jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap, http.ResponseController'ın (WebSocket hijack, flush) alttaki
// writer'a ulaşabilmesi için.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack, WebSocket upgrade'i kaydedici üzerinden de çalışsın diye.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}
