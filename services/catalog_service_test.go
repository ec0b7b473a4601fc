package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/ws"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type catalogEnv struct {
	*testEnv
	catalog    *CatalogCache
	images     *ImageStore
	imageDir   string
	categories CategoryService
	products   ProductService
	uploads    UploadService
}

func newCatalogEnv(t *testing.T) *catalogEnv {
	t.Helper()
	env := newTestEnv(t)

	catalog := NewCatalogCache(time.Minute)
	t.Cleanup(catalog.Close)

	dir := t.TempDir()
	images, err := NewImageStore(dir, 1024)
	require.NoError(t, err)

	return &catalogEnv{
		testEnv:    env,
		catalog:    catalog,
		images:     images,
		imageDir:   dir,
		categories: NewCategoryService(env.catRepo, catalog, env.calendar, env.hub),
		products:   NewProductService(env.prodRepo, env.catRepo, images, catalog, env.hub),
		uploads:    NewUploadService(env.prodRepo, images, catalog, env.hub),
	}
}

func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestCategoryService_CRUD(t *testing.T) {
	env := newCatalogEnv(t)
	ctx := context.Background()

	list, err := env.categories.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "yas-pasta", list[0].Slug)

	cat, err := env.categories.Create(ctx, &models.CreateCategoryRequest{
		Name:           "  Çikolatalı Tart ",
		WorkloadPoints: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Çikolatalı Tart", cat.Name)
	assert.Equal(t, "cikolatali-tart", cat.Slug)
	assert.Equal(t, 5, cat.Position, "appended after the seeded categories")
	assert.True(t, cat.IsActive)

	list, err = env.categories.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, list, 5, "create invalidates the public list")

	_, err = env.categories.Create(ctx, &models.CreateCategoryRequest{Name: "çikolatalı tart"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
	_, err = env.categories.Create(ctx, &models.CreateCategoryRequest{Name: "!!!"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
	_, err = env.categories.Create(ctx, &models.CreateCategoryRequest{Name: "Negatif", WorkloadPoints: -1})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	updated, err := env.categories.Update(ctx, cat.ID, &models.UpdateCategoryRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	list, err = env.categories.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, list, 4)
	all, err := env.categories.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	require.NoError(t, env.categories.Delete(ctx, cat.ID))
	_, err = env.categories.Get(ctx, cat.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	assert.Equal(t, []string{ws.OpCategoryCreate, ws.OpCategoryUpdate, ws.OpCategoryDelete}, env.hub.ops())
}

func TestCategoryService_PointsChangeRescoresCalendar(t *testing.T) {
	env := newCatalogEnv(t)
	ctx := context.Background()
	cupcake := env.category(t, "cupcake")

	req := cupcakeOrder(cupcake, testDate)
	req.Quantity = 10
	env.createOrder(t, req)

	day, err := env.calendar.Day(ctx, testDate, false)
	require.NoError(t, err)
	assert.Equal(t, 10, day.Score)

	// Aylık görünüm önbelleğe alınır
	_, err = env.calendar.Month(ctx, "2030-05")
	require.NoError(t, err)

	_, err = env.categories.Update(ctx, cupcake.ID, &models.UpdateCategoryRequest{WorkloadPoints: intPtr(5)})
	require.NoError(t, err)
	assert.Contains(t, env.hub.ops(), ws.OpCalendarUpdate)

	month, err := env.calendar.Month(ctx, "2030-05")
	require.NoError(t, err)
	assert.Equal(t, 50, month.Days[9].Score)
	assert.Equal(t, models.TierFull, month.Days[9].Tier)
}

func TestCategoryService_DeleteReferenced(t *testing.T) {
	env := newCatalogEnv(t)
	ctx := context.Background()
	cat := env.category(t, "butik-kurabiye")

	_, err := env.products.Create(ctx, &models.CreateProductRequest{
		CategoryID: cat.ID,
		Name:       "Bebek Kurabiyesi",
		Price:      decimal.NewFromInt(30),
	})
	require.NoError(t, err)

	err = env.categories.Delete(ctx, cat.ID)
	assert.ErrorIs(t, err, pkg.ErrConflict)

	err = env.categories.Delete(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestProductService_CRUD(t *testing.T) {
	env := newCatalogEnv(t)
	ctx := context.Background()
	cat := env.category(t, "yas-pasta")

	first, err := env.products.Create(ctx, &models.CreateProductRequest{
		CategoryID: cat.ID,
		Name:       "Frambuazlı Pasta",
		Price:      decimal.RequireFromString("450.50"),
		IsFeatured: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "frambuazli-pasta", first.Slug)
	assert.Equal(t, "Yaş Pasta", first.CategoryName)
	assert.True(t, first.IsActive)

	second, err := env.products.Create(ctx, &models.CreateProductRequest{
		CategoryID: cat.ID,
		Name:       "Frambuazlı  Pasta!",
		Price:      decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	assert.Equal(t, "frambuazli-pasta-2", second.Slug)

	t.Run("validation", func(t *testing.T) {
		cases := []models.CreateProductRequest{
			{Name: "Pasta", Price: decimal.NewFromInt(1)},
			{CategoryID: cat.ID, Name: "P", Price: decimal.NewFromInt(1)},
			{CategoryID: cat.ID, Name: "Pasta", Price: decimal.NewFromInt(-1)},
			{CategoryID: cat.ID, Name: "Pasta", Price: decimal.RequireFromString("1.999")},
		}
		for _, req := range cases {
			_, err := env.products.Create(ctx, &req)
			assert.ErrorIs(t, err, pkg.ErrBadRequest)
		}

		_, err := env.products.Create(ctx, &models.CreateProductRequest{CategoryID: "missing", Name: "Pasta"})
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
	})

	featured, err := env.products.List(ctx, models.ProductFilter{OnlyActive: true, OnlyFeatured: true})
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, first.ID, featured[0].ID)

	// Güncelleme önbelleği temizler
	_, err = env.products.Update(ctx, second.ID, &models.UpdateProductRequest{IsFeatured: boolPtr(true)})
	require.NoError(t, err)
	featured, err = env.products.List(ctx, models.ProductFilter{OnlyActive: true, OnlyFeatured: true})
	require.NoError(t, err)
	assert.Len(t, featured, 2)

	renamed, err := env.products.Update(ctx, second.ID, &models.UpdateProductRequest{Name: strPtr("Vişneli Pasta")})
	require.NoError(t, err)
	assert.Equal(t, "visneli-pasta", renamed.Slug)

	bySlug, err := env.products.GetBySlug(ctx, "visneli-pasta")
	require.NoError(t, err)
	assert.Equal(t, second.ID, bySlug.ID)

	found, err := env.products.List(ctx, models.ProductFilter{Search: "vişne"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, env.products.Delete(ctx, first.ID))
	_, err = env.products.Get(ctx, first.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestUploadService_ProductImage(t *testing.T) {
	env := newCatalogEnv(t)
	ctx := context.Background()
	cat := env.category(t, "cupcake")

	product, err := env.products.Create(ctx, &models.CreateProductRequest{
		CategoryID: cat.ID,
		Name:       "Limonlu Cupcake",
		Price:      decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	withImage, err := env.uploads.ProductImage(ctx, product.ID, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.NotNil(t, withImage.ImageURL)
	assert.True(t, strings.HasPrefix(*withImage.ImageURL, UploadURLPrefix))
	assert.True(t, strings.HasSuffix(*withImage.ImageURL, ".png"))

	oldFile := filepath.Join(env.imageDir, filepath.Base(*withImage.ImageURL))
	assert.FileExists(t, oldFile)

	replaced, err := env.uploads.ProductImage(ctx, product.ID, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.NotEqual(t, *withImage.ImageURL, *replaced.ImageURL)
	assert.NoFileExists(t, oldFile, "previous image is removed")

	t.Run("rejects unknown types", func(t *testing.T) {
		_, err := env.uploads.ProductImage(ctx, product.ID, strings.NewReader("<html>merhaba</html>"))
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
		_, err = env.uploads.ProductImage(ctx, product.ID, strings.NewReader(""))
		assert.ErrorIs(t, err, pkg.ErrBadRequest)
	})

	t.Run("rejects large files", func(t *testing.T) {
		big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 2048)...)
		_, err := env.uploads.ProductImage(ctx, product.ID, bytes.NewReader(big))
		assert.ErrorIs(t, err, pkg.ErrBadRequest)

		entries, err := os.ReadDir(env.imageDir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "partial file is cleaned up")
	})

	cleared, err := env.uploads.RemoveProductImage(ctx, product.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.ImageURL)
	entries, err := os.ReadDir(env.imageDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = env.uploads.ProductImage(ctx, "missing", bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestImageStore_RemoveIgnoresForeignURLs(t *testing.T) {
	dir := t.TempDir()
	store, err := NewImageStore(dir, 1024)
	require.NoError(t, err)

	outside := filepath.Join(dir, "..", "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	store.Remove("https://cdn.example.com/a.png")
	store.Remove(UploadURLPrefix + "../keep.txt")
	store.Remove(UploadURLPrefix + "yok.png")

	assert.FileExists(t, outside)
}
