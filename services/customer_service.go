package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/metrics"
	"github.com/akinalp/pastane/pkg/ratelimit"
	"github.com/akinalp/pastane/repository"
)

// CustomerService, müşteri kayıtları ve sadakat sorgusu. Sadakat sayaçları
// burada değil, sipariş durum geçişlerinde (OrderService) değişir.
type CustomerService interface {
	List(ctx context.Context, filter models.CustomerFilter) (*models.CustomerList, error)
	Get(ctx context.Context, id string) (*models.Customer, error)
	Update(ctx context.Context, id string, req *models.UpdateCustomerRequest) (*models.Customer, error)
	Orders(ctx context.Context, id string, limit, offset int) (*models.OrderList, error)
	// LoyaltyLookup, vitrindeki telefonla sadakat sorgusu. Sadece ilerleme
	// sayıları ve maskeli isim döner. Numara taramasına karşı IP başına
	// sınırlıdır.
	LoyaltyLookup(ctx context.Context, phone, ip string) (*models.LoyaltyProgress, error)
	Progress(c *models.Customer) models.LoyaltyProgress
}

type customerService struct {
	customerRepo repository.CustomerRepository
	orderRepo    repository.OrderRepository
	loyalty      Loyalty
	limiter      *ratelimit.IPLimiter
}

// NewCustomerService, limiter nil ise sadakat sorgusu sınırlanmaz.
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	orderRepo repository.OrderRepository,
	loyalty Loyalty,
	limiter *ratelimit.IPLimiter,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		loyalty:      loyalty,
		limiter:      limiter,
	}
}

func (s *customerService) List(ctx context.Context, filter models.CustomerFilter) (*models.CustomerList, error) {
	customers, total, err := s.customerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.CustomerList{Customers: customers, Total: total}, nil
}

func (s *customerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	return s.customerRepo.GetByID(ctx, id)
}

func (s *customerService) Update(ctx context.Context, id string, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.Note != nil {
		customer.Note = *req.Note
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Orders(ctx context.Context, id string, limit, offset int) (*models.OrderList, error) {
	if _, err := s.customerRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	orders, total, err := s.orderRepo.List(ctx, models.OrderFilter{CustomerID: id, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &models.OrderList{Orders: orders, Total: total}, nil
}

func (s *customerService) LoyaltyLookup(ctx context.Context, phone, ip string) (*models.LoyaltyProgress, error) {
	if s.limiter != nil && !s.limiter.Allow(ip) {
		metrics.RateLimited("loyalty")
		return nil, fmt.Errorf("%w: too many loyalty lookups, please try again later", pkg.ErrTooManyRequests)
	}

	normalized, err := models.NormalizePhone(phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	customer, err := s.customerRepo.GetByPhone(ctx, normalized)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: no customer with this phone number", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	progress := s.loyalty.Progress(customer)
	return &progress, nil
}

func (s *customerService) Progress(c *models.Customer) models.LoyaltyProgress {
	return s.loyalty.Progress(c)
}
