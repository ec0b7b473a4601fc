package repository

import (
	"context"
	"time"

	"github.com/akinalp/pastane/models"
)

// AdminRepository, panel kullanıcıları.
type AdminRepository interface {
	Create(ctx context.Context, admin *models.Admin) error
	GetByID(ctx context.Context, id string) (*models.Admin, error)
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// UpdateTOTP, şifreli secret'ı ve aktiflik bayrağını yazar. secret nil
	// ise 2FA tamamen kaldırılır.
	UpdateTOTP(ctx context.Context, id string, secret *string, enabled bool) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role models.AdminRole) (int, error)
}
