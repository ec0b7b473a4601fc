package repository

import (
	"context"

	"github.com/akinalp/pastane/models"
)

// ProductRepository, ürün veritabanı işlemleri.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	UpdateImage(ctx context.Context, id string, imageURL *string) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
}
