package middleware

import (
	"net/http"
	"strconv"

	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/metrics"
	"github.com/akinalp/pastane/pkg/ratelimit"
)

// IPRateLimit, istemci IP'si başına token bucket uygular. Limit aşılınca
// Retry-After ile 429 döner; name metrics etiketidir ("public", "storefront").
// limiter nil ise middleware hiçbir şey yapmaz.
func IPRateLimit(limiter *ratelimit.IPLimiter, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := limiter.Reserve(ratelimit.ClientIP(r))
			if !ok {
				metrics.RateLimited(name)
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
					"too many requests, please try again in "+ratelimit.FormatRetry(retry))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
