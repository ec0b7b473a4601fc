package repository

import (
	"context"

	"github.com/akinalp/pastane/models"
)

// ContactRepository, iletişim formu mesajları.
type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	GetByID(ctx context.Context, id string) (*models.ContactMessage, error)
	List(ctx context.Context, filter models.ContactFilter) ([]models.ContactMessage, int, error)
	SetRead(ctx context.Context, id string, read bool) error
	Delete(ctx context.Context, id string) error
	CountUnread(ctx context.Context) (int, error)
}
