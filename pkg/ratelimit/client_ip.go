package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
)

// trustedProxies, X-Forwarded-For / X-Real-IP header'larına güvenilen
// doğrudan bağlantı adresleri. Boşsa header'lar yok sayılır.
var trustedProxies atomic.Pointer[[]netip.Prefix]

// SetTrustedProxies, güvenilen proxy listesini ayarlar. Girdiler CIDR
// ("10.0.0.0/8") veya tek adres ("127.0.0.1") olabilir.
func SetTrustedProxies(entries []string) error {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return fmt.Errorf("invalid trusted proxy %q: %w", e, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", e, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	trustedProxies.Store(&prefixes)
	return nil
}

func isTrusted(addr netip.Addr) bool {
	list := trustedProxies.Load()
	if list == nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range *list {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP, isteğin istemci IP'sini döner.
//
// Forwarding header'ları yalnızca doğrudan bağlantı güvenilen bir proxy'den
// geliyorsa okunur. X-Forwarded-For sağdan sola yürünür ve güvenilmeyen ilk
// adres istemci kabul edilir; soldaki değerler istemcinin kendi yazdığı
// olabileceği için kullanılmaz.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !isTrusted(peer) {
		return host
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				// Bozuk değerin solundakilere güvenilemez
				return host
			}
			if !isTrusted(addr) {
				return addr.Unmap().String()
			}
		}
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}
	return host
}
