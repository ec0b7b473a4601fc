package services

import (
	"context"
	"fmt"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/repository"
	"github.com/akinalp/pastane/ws"
)

// CategoryService, kategori iş mantığı interface'i.
type CategoryService interface {
	List(ctx context.Context, includeInactive bool) ([]models.Category, error)
	Get(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error)
	Update(ctx context.Context, id string, req *models.UpdateCategoryRequest) (*models.Category, error)
	// Delete, kategoriye bağlı ürün veya sipariş varken ErrConflict döner.
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	catalog      *CatalogCache
	calendar     CalendarService
	hub          ws.EventPublisher
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	catalog *CatalogCache,
	calendar CalendarService,
	hub ws.EventPublisher,
) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		catalog:      catalog,
		calendar:     calendar,
		hub:          hub,
	}
}

func (s *categoryService) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	if includeInactive {
		return s.categoryRepo.List(ctx, true)
	}
	return s.catalog.categories.GetOrLoad("active", func() ([]models.Category, error) {
		return s.categoryRepo.List(ctx, false)
	})
}

func (s *categoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *categoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.categoryRepo.GetBySlug(ctx, slug)
}

func (s *categoryService) Create(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	position := req.Position
	if position == 0 {
		maxPos, err := s.categoryRepo.GetMaxPosition(ctx)
		if err != nil {
			return nil, err
		}
		position = maxPos + 1
	}

	category := &models.Category{
		Name:           req.Name,
		Slug:           models.Slugify(req.Name),
		Description:    req.Description,
		WorkloadPoints: req.WorkloadPoints,
		Position:       position,
		IsActive:       req.IsActive == nil || *req.IsActive,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.catalog.Invalidate()
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpCategoryCreate, Data: category})
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id string, req *models.UpdateCategoryRequest) (*models.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pointsChanged := false
	if req.Name != nil {
		category.Name = *req.Name
		category.Slug = models.Slugify(*req.Name)
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.WorkloadPoints != nil && *req.WorkloadPoints != category.WorkloadPoints {
		category.WorkloadPoints = *req.WorkloadPoints
		pointsChanged = true
	}
	if req.Position != nil {
		category.Position = *req.Position
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	s.catalog.Invalidate()
	// Puan değişince geçmiş ve gelecek tüm günlerin skoru değişir.
	if pointsChanged {
		s.calendar.InvalidateAll()
		s.hub.BroadcastToAll(ws.Event{Op: ws.OpCalendarUpdate, Data: ws.CalendarUpdateData{}})
	}
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpCategoryUpdate, Data: category})
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	products, orders, err := s.categoryRepo.CountReferences(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 || orders > 0 {
		return fmt.Errorf("%w: category has %d products and %d orders", pkg.ErrConflict, products, orders)
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.catalog.Invalidate()
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpCategoryDelete, Data: ws.IDData{ID: id}})
	return nil
}
