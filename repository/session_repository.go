package repository

import (
	"context"
	"time"

	"github.com/akinalp/pastane/models"
)

// SessionRepository, refresh token oturumları.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByAdminID(ctx context.Context, adminID string) error
	// DeleteExpired, before'dan önce süresi dolan oturumları siler ve
	// silinen satır sayısını döner.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
