package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoginLimiter(max int, period time.Duration, clock *time.Time) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		windows:     make(map[string]*window),
		maxAttempts: max,
		period:      period,
		now:         func() time.Time { return *clock },
		stop:        make(chan struct{}),
	}
	return rl
}

func TestLoginRateLimiter_BlocksAfterMaxAttempts(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLoginLimiter(3, time.Minute, &clock)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "attempt %d", i+1)
	}
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "other keys are independent")

	clock = clock.Add(30 * time.Second)
	assert.Equal(t, 31, rl.RetryAfter("1.2.3.4"))

	clock = clock.Add(31 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"), "new window after period")
}

// Pencere ilk denemeyle açılır ve süresi dolunca bütünüyle sıfırlanır;
// pencerenin sonuna yakın denemeler sonraki pencereye taşınmaz.
func TestLoginRateLimiter_FixedWindow(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLoginLimiter(3, time.Minute, &clock)

	require.True(t, rl.Allow("ip"))
	clock = clock.Add(50 * time.Second)
	require.True(t, rl.Allow("ip"))
	require.True(t, rl.Allow("ip"))
	require.False(t, rl.Allow("ip"))
	assert.Equal(t, 11, rl.RetryAfter("ip"))

	clock = clock.Add(11 * time.Second)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("ip"), "attempt %d of the new window", i+1)
	}
	assert.False(t, rl.Allow("ip"))
}

func TestLoginRateLimiter_Reset(t *testing.T) {
	clock := time.Now()
	rl := newTestLoginLimiter(1, time.Hour, &clock)

	require.True(t, rl.Allow("ip"))
	require.False(t, rl.Allow("ip"))

	rl.Reset("ip")
	assert.True(t, rl.Allow("ip"))
	assert.Zero(t, rl.RetryAfter("unknown"))
}

func TestLoginRateLimiter_Sweep(t *testing.T) {
	clock := time.Now()
	rl := newTestLoginLimiter(5, time.Minute, &clock)
	rl.Allow("a")
	clock = clock.Add(2 * time.Minute)
	rl.Allow("b")

	rl.sweep()

	_, hasA := rl.windows["a"]
	_, hasB := rl.windows["b"]
	assert.False(t, hasA)
	assert.True(t, hasB)
}

func TestIPLimiter_Burst(t *testing.T) {
	l := NewIPLimiter(1, 2, time.Minute)
	defer l.Stop()

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	ok, wait := l.Reserve("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, wait, 0)
	assert.LessOrEqual(t, wait, 60)

	assert.True(t, l.Allow("10.0.0.2"))
	assert.Equal(t, 2, l.Len())
}

func TestIPLimiter_SweepIdle(t *testing.T) {
	l := NewIPLimiter(60, 5, time.Minute)
	defer l.Stop()

	l.Allow("a")
	l.sweep(time.Now().Add(2 * time.Minute))
	assert.Zero(t, l.Len())
}

func TestClientIP(t *testing.T) {
	require.NoError(t, SetTrustedProxies([]string{"10.0.0.0/8", "127.0.0.1"}))
	t.Cleanup(func() { _ = SetTrustedProxies(nil) })

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded through trusted proxy", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.1:1234", "203.0.113.7"},
		{"rightmost untrusted hop wins", map[string]string{"X-Forwarded-For": "1.1.1.1, 203.0.113.7, 10.0.0.2"}, "10.0.0.1:1234", "203.0.113.7"},
		{"garbage hop stops the walk", map[string]string{"X-Forwarded-For": "203.0.113.7, yok"}, "10.0.0.1:1234", "10.0.0.1"},
		{"real ip from trusted proxy", map[string]string{"X-Real-IP": "198.51.100.2"}, "127.0.0.1:1234", "198.51.100.2"},
		{"spoofed forwarded from untrusted peer", map[string]string{"X-Forwarded-For": "10.0.0.9"}, "203.0.113.9:4444", "203.0.113.9"},
		{"spoofed real ip from untrusted peer", map[string]string{"X-Real-IP": "10.0.0.9"}, "203.0.113.9:4444", "203.0.113.9"},
		{"remote addr", nil, "192.0.2.10:5555", "192.0.2.10"},
		{"remote without port", nil, "192.0.2.11", "192.0.2.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestClientIP_NoTrustedProxies(t *testing.T) {
	require.NoError(t, SetTrustedProxies(nil))

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	assert.Equal(t, "10.0.0.1", ClientIP(r))
}

func TestSetTrustedProxies_Invalid(t *testing.T) {
	assert.Error(t, SetTrustedProxies([]string{"10.0.0.0/33"}))
	assert.Error(t, SetTrustedProxies([]string{"proxy.local"}))
	require.NoError(t, SetTrustedProxies(nil))
}

func TestFormatRetry(t *testing.T) {
	assert.Equal(t, "45 saniye", FormatRetry(45))
	assert.Equal(t, "2 dakika", FormatRetry(61))
}
