package repository

import (
	"context"

	"github.com/akinalp/pastane/models"
)

// CategoryRepository, kategori veritabanı işlemleri.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context, includeInactive bool) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
	// CountReferences, kategoriye bağlı ürün ve sipariş sayısını döner.
	CountReferences(ctx context.Context, id string) (products int, orders int, err error)
	GetMaxPosition(ctx context.Context) (int, error)
}
