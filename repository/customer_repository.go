package repository

import (
	"context"

	"github.com/akinalp/pastane/models"
)

// CustomerRepository, müşteri ve sadakat sayacı işlemleri.
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error)
	Update(ctx context.Context, customer *models.Customer) error
	// UpdateLoyalty, sadece sayaç kolonlarını yazar. Sipariş durum
	// geçişiyle aynı transaction içinde çağrılır.
	UpdateLoyalty(ctx context.Context, customer *models.Customer) error
	Top(ctx context.Context, limit int) ([]models.Customer, error)
	Count(ctx context.Context) (int, error)
	CountCreatedBetween(ctx context.Context, from, to string) (int, error)
}
