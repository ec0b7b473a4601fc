package services

import (
	"fmt"
	"time"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg/cache"
)

// CatalogCache, vitrindeki kategori ve ürün listelerinin önbelleği.
// Katalogda herhangi bir yazma işlemi iki listeyi de temizler; ürün sayısı
// kategori satırında da gösterildiği için ayrı ayrı temizlemek yetmez.
type CatalogCache struct {
	categories *cache.TTLCache[string, []models.Category]
	products   *cache.TTLCache[string, []models.Product]
}

func NewCatalogCache(ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		categories: cache.New[string, []models.Category](ttl, ttl),
		products:   cache.New[string, []models.Product](ttl, ttl),
	}
}

func (c *CatalogCache) Invalidate() {
	c.categories.Clear()
	c.products.Clear()
}

func (c *CatalogCache) Close() {
	c.categories.Close()
	c.products.Close()
}

// productKey, arama içermeyen filtreler için önbellek anahtarı. Arama
// sorguları önbelleğe alınmaz.
func productKey(f models.ProductFilter) (string, bool) {
	if f.Search != "" {
		return "", false
	}
	return fmt.Sprintf("%s|%t|%t", f.CategoryID, f.OnlyActive, f.OnlyFeatured), true
}
