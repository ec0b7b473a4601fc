// Package cache, süreli (TTL) generic in-memory cache.
//
// Vitrin kataloğu ve takvim ayları gibi sık okunan, seyrek değişen veriler
// için kullanılır. Yazma işlemlerinden sonra ilgili anahtarlar Delete veya
// DeleteFunc ile geçersiz kılınır.
package cache

import (
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, thread-safe K→V cache. Süresi dolan kayıtlar Get'te miss
// sayılır, map'ten fiziksel silme periyodik yapılır.
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]item[V]
	ttl   time.Duration
	now   func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// New, cache oluşturur. sweepEvery aralığıyla süresi dolan kayıtlar silinir.
func New[K comparable, V any](ttl, sweepEvery time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		items: make(map[K]item[V]),
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-c.done:
				return
			}
		}
	}()

	return c
}

// Get, süresi dolmamış değeri döner.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[key]
	if !ok || !c.now().Before(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set, değeri TTL ile yazar.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// GetOrLoad, cache'te yoksa load ile üretir ve yazar. load hata dönerse
// cache'e bir şey yazılmaz.
//
// Aynı anahtar için eşzamanlı miss'lerde load birden fazla çalışabilir;
// sonuç aynı olduğu sürece sorun değildir.
func (c *TTLCache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Delete, tek anahtarı geçersiz kılar.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// DeleteFunc, predicate'i sağlayan tüm anahtarları siler.
func (c *TTLCache[K, V]) DeleteFunc(predicate func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if predicate(key) {
			delete(c.items, key)
		}
	}
}

// Clear, tüm kayıtları siler.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]item[V])
}

// Len, süresi dolmuşlar dahil kayıt sayısı.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close, temizleme goroutine'ini durdurur.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *TTLCache[K, V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, it := range c.items {
		if !now.Before(it.expiresAt) {
			delete(c.items, key)
		}
	}
}
