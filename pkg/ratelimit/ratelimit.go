// Package ratelimit, yönetici girişi ve herkese açık uç noktalar için
// in-memory istek sınırlayıcılar.
//
// Uygulama tek instance çalışır; sayaçlar process belleğinde tutulur.
// Paket proje içi hiçbir pakete bağımlı değildir, middleware ve handler
// katmanları import cycle olmadan kullanabilir.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// window, bir anahtar için pencere başlangıcı ve deneme sayısı.
type window struct {
	attempts int
	start    time.Time
}

// LoginRateLimiter, IP başına sabit pencereli giriş denemesi sınırı.
//
//	limiter := NewLoginRateLimiter(5, 15*time.Minute)
//	if !limiter.Allow(ip) { ... 429 ... }
//	limiter.Reset(ip) // başarılı girişten sonra
type LoginRateLimiter struct {
	mu          sync.Mutex
	windows     map[string]*window
	maxAttempts int
	period      time.Duration
	now         func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLoginRateLimiter, limiter oluşturur ve dakikada bir süresi dolan
// pencereleri temizleyen goroutine'i başlatır. Stop ile durdurulur.
func NewLoginRateLimiter(maxAttempts int, period time.Duration) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		windows:     make(map[string]*window),
		maxAttempts: maxAttempts,
		period:      period,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
	go rl.sweepLoop(time.Minute)
	return rl
}

// Allow, denemeyi sayar ve limit aşılmadıysa true döner.
// Her çağrı sayacı artırır; başarılı girişte Reset çağrılmalıdır.
func (rl *LoginRateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) > rl.period {
		rl.windows[key] = &window{attempts: 1, start: now}
		return true
	}

	w.attempts++
	return w.attempts <= rl.maxAttempts
}

// Reset, anahtarın sayacını siler.
func (rl *LoginRateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, key)
}

// RetryAfter, pencerenin kapanmasına kalan süreyi saniye olarak döner
// (yukarı yuvarlanmış). Retry-After header'ı için kullanılır.
func (rl *LoginRateLimiter) RetryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok {
		return 0
	}
	remaining := rl.period - rl.now().Sub(w.start)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Stop, temizleme goroutine'ini durdurur. Birden fazla çağrı güvenlidir.
func (rl *LoginRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *LoginRateLimiter) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

func (rl *LoginRateLimiter) sweep() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.windows {
		if now.Sub(w.start) > rl.period {
			delete(rl.windows, key)
		}
	}
}

// FormatRetry, saniyeyi kullanıcıya gösterilecek Türkçe metne çevirir.
func FormatRetry(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d dakika", (seconds+59)/60)
	}
	return fmt.Sprintf("%d saniye", seconds)
}
