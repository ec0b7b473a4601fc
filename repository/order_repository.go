package repository

import (
	"context"

	"github.com/akinalp/pastane/models"
)

// OrderRepository, sipariş ve durum geçmişi işlemleri.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	ListByDeliveryDate(ctx context.Context, date string) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id string) error

	// DailyLoads, [from, to] aralığındaki günlerin iptal edilmemiş
	// siparişlerinden Puan toplamını döner. Siparişi olmayan günler yoktur.
	DailyLoads(ctx context.Context, from, to string) ([]models.DailyLoad, error)
	// DayScore, tek günün Puan toplamı; excludeOrderID verilirse o sipariş
	// hesaba katılmaz (güncellemede siparişin eski hali).
	DayScore(ctx context.Context, date, excludeOrderID string) (int, error)

	AddStatusChange(ctx context.Context, change *models.OrderStatusChange) error
	ListStatusChanges(ctx context.Context, orderID string) ([]models.OrderStatusChange, error)
}
