package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/ratelimit"
)

// CSRFFieldName, vitrin formlarındaki gizli alanın adı.
const CSRFFieldName = "csrf_token"

// CSRF, vitrin formlarını (iletişim, sadakat sorgusu) korur. Token
// şablonlara {{ .CSRFField }} ile gömülür.
//
// secure false iken (yerel geliştirme, TLS'i sonlandıran proxy yok) istek
// düz HTTP olarak işaretlenir; aksi halde gorilla/csrf Referer'ı https
// şemasıyla karşılaştırır ve formlar reddedilir.
func CSRF(authKey []byte, secure bool) func(http.Handler) http.Handler {
	log := logger.Named("csrf")

	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFieldName),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warn("csrf check failed",
				zap.String("path", r.URL.Path),
				zap.String("ip", ratelimit.ClientIP(r)),
				zap.Error(csrf.FailureReason(r)),
			)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if secure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

// CORS, JSON API için izin verilen origin'ler. Panel ayrı bir origin'den
// (ör. Vite dev server) çalışabilir.
func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           600,
	})
	return c.Handler
}

// SecurityHeaders, tarayıcıya yönelik temel güvenlik header'ları.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
