package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter, IP başına token bucket. Herkese açık API ve iletişim formu
// için kullanılır; her IP dakikada perMinute istek ve burst kadar ani
// artış hakkına sahiptir.
type IPLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPLimiter, limiter oluşturur. idle süresince görülmeyen IP'ler
// arka planda silinir.
func NewIPLimiter(perMinute, burst int, idle time.Duration) *IPLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &IPLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		idle:     idle,
		stop:     make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

func (l *IPLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Allow, ip için bir token tüketir.
func (l *IPLimiter) Allow(ip string) bool {
	return l.get(ip).Allow()
}

// Reserve, token tüketmeyi dener; reddedildiğinde bir sonraki token'a
// kadar beklenmesi gereken süreyi saniye olarak döner.
func (l *IPLimiter) Reserve(ip string) (bool, int) {
	lim := l.get(ip)
	now := time.Now()
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 60
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, int(math.Ceil(delay.Seconds()))
}

// Len, takip edilen IP sayısı.
func (l *IPLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Stop, temizleme goroutine'ini durdurur.
func (l *IPLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *IPLimiter) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep(time.Now())
		case <-l.stop:
			return
		}
	}
}

func (l *IPLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, ip)
		}
	}
}
