package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/repository"
	"github.com/akinalp/pastane/ws"
)

// maxSlugSuffix, aynı isimli ürünler için denenecek "-2", "-3"... son ekleri.
const maxSlugSuffix = 50

// ProductService, ürün iş mantığı interface'i.
type ProductService interface {
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	Update(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	images       *ImageStore
	catalog      *CatalogCache
	hub          ws.EventPublisher
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	images *ImageStore,
	catalog *CatalogCache,
	hub ws.EventPublisher,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		images:       images,
		catalog:      catalog,
		hub:          hub,
	}
}

func (s *productService) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	key, cacheable := productKey(filter)
	if !cacheable || !filter.OnlyActive {
		return s.productRepo.List(ctx, filter)
	}
	return s.catalog.products.GetOrLoad(key, func() ([]models.Product, error) {
		return s.productRepo.List(ctx, filter)
	})
}

func (s *productService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

func (s *productService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.productRepo.GetBySlug(ctx, slug)
}

func (s *productService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if _, err := lookupCategory(ctx, s.categoryRepo, req.CategoryID); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, req.Name, "")
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    req.IsActive == nil || *req.IsActive,
		IsFeatured:  req.IsFeatured,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	// Kategori adı JOIN ile gelir
	created, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	s.catalog.Invalidate()
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpProductCreate, Data: created})
	return created, nil
}

func (s *productService) Update(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if _, err := lookupCategory(ctx, s.categoryRepo, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Name != nil && *req.Name != product.Name {
		slug, err := s.uniqueSlug(ctx, *req.Name, product.ID)
		if err != nil {
			return nil, err
		}
		product.Name = *req.Name
		product.Slug = slug
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	updated, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.catalog.Invalidate()
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpProductUpdate, Data: updated})
	return updated, nil
}

// Delete, ürünü ve görselini siler. Ürüne bağlı siparişlerde product_id
// NULL olur; sipariş kategori üzerinden Puan'ını korur.
func (s *productService) Delete(ctx context.Context, id string) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	if product.ImageURL != nil {
		s.images.Remove(*product.ImageURL)
	}

	s.catalog.Invalidate()
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpProductDelete, Data: ws.IDData{ID: id}})
	return nil
}

// uniqueSlug, isimden slug üretir; alınmışsa "-2", "-3" ... dener.
func (s *productService) uniqueSlug(ctx context.Context, name, excludeID string) (string, error) {
	base := models.Slugify(name)
	slug := base
	for i := 2; i <= maxSlugSuffix; i++ {
		exists, err := s.productRepo.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(i)
	}
	return "", fmt.Errorf("%w: too many products named %q", pkg.ErrAlreadyExists, name)
}
