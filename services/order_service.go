package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/akinalp/pastane/database"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/email"
	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/metrics"
	"github.com/akinalp/pastane/repository"
	"github.com/akinalp/pastane/ws"
)

// orderNumberAttempts, sipariş numarası çakışmasında yeniden deneme sayısı.
const orderNumberAttempts = 5

// OrderService, sipariş yaşam döngüsü.
//
// Durum geçişleri müşterinin sadakat sayaçlarını telafi edici şekilde
// günceller: tamamlanan sipariş sayacı artırır, tamamlanmışlıktan çıkan
// sipariş geri alır. Sipariş satırı, müşteri sayaçları ve durum geçmişi
// aynı transaction'da yazılır.
type OrderService interface {
	Create(ctx context.Context, adminID string, req *models.CreateOrderRequest) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) (*models.OrderList, error)
	Update(ctx context.Context, id string, req *models.UpdateOrderRequest) (*models.Order, error)
	UpdateStatus(ctx context.Context, id, adminID string, req *models.UpdateOrderStatusRequest) (*models.StatusChangeResult, error)
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]models.OrderStatusChange, error)
}

type orderService struct {
	db        *sql.DB
	orderRepo repository.OrderRepository
	loyalty   Loyalty
	calendar  CalendarService
	hub       ws.EventPublisher
	mailer    email.Sender
	log       *zap.Logger
	now       func() time.Time
}

func NewOrderService(
	db *sql.DB,
	orderRepo repository.OrderRepository,
	loyalty Loyalty,
	calendar CalendarService,
	hub ws.EventPublisher,
	mailer email.Sender,
) OrderService {
	return &orderService{
		db:        db,
		orderRepo: orderRepo,
		loyalty:   loyalty,
		calendar:  calendar,
		hub:       hub,
		mailer:    mailer,
		log:       logger.Named("orders"),
		now:       time.Now,
	}
}

// txRepos, transaction'a bağlı repository'ler.
type txRepos struct {
	orders     repository.OrderRepository
	customers  repository.CustomerRepository
	categories repository.CategoryRepository
	products   repository.ProductRepository
}

func newTxRepos(tx *sql.Tx) txRepos {
	return txRepos{
		orders:     repository.NewSQLiteOrderRepo(tx),
		customers:  repository.NewSQLiteCustomerRepo(tx),
		categories: repository.NewSQLiteCategoryRepo(tx),
		products:   repository.NewSQLiteProductRepo(tx),
	}
}

func (s *orderService) Create(ctx context.Context, adminID string, req *models.CreateOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	var orderID string
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r := newTxRepos(tx)

		category, err := lookupCategory(ctx, r.categories, req.CategoryID)
		if err != nil {
			return err
		}

		price := decimal.Zero
		if req.TotalPrice != nil {
			price = *req.TotalPrice
		}
		if req.ProductID != nil {
			product, err := lookupProduct(ctx, r.products, *req.ProductID, category.ID)
			if err != nil {
				return err
			}
			if req.TotalPrice == nil {
				price = product.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
			}
		}

		customer, err := s.findOrCreateCustomer(ctx, r.customers, req)
		if err != nil {
			return err
		}

		if req.UseGift {
			if err := s.loyalty.RedeemGift(customer); err != nil {
				return err
			}
			if err := r.customers.UpdateLoyalty(ctx, customer); err != nil {
				return err
			}
			price = decimal.Zero
		}

		if !req.Force {
			score, err := r.orders.DayScore(ctx, req.DeliveryDate, "")
			if err != nil {
				return err
			}
			if err := capacityError(s.calendar.Workload(), req.DeliveryDate, score, req.Quantity*category.WorkloadPoints); err != nil {
				return err
			}
		}

		order := &models.Order{
			CustomerID:   customer.ID,
			CategoryID:   category.ID,
			ProductID:    req.ProductID,
			Quantity:     req.Quantity,
			DeliveryDate: req.DeliveryDate,
			Note:         req.Note,
			TotalPrice:   price,
			Status:       models.OrderStatusPending,
			IsGift:       req.UseGift,
		}
		if err := s.insertWithNumber(ctx, r.orders, order); err != nil {
			return err
		}
		orderID = order.ID

		return r.orders.AddStatusChange(ctx, &models.OrderStatusChange{
			OrderID:  order.ID,
			ToStatus: models.OrderStatusPending,
			AdminID:  adminID,
		})
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	metrics.OrderCreated(order.IsGift)
	if order.IsGift {
		metrics.LoyaltyEvent(metrics.LoyaltyRedeemed)
	}
	s.calendarChanged(order.DeliveryDate)
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpOrderCreate, Data: order})

	s.log.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("delivery_date", order.DeliveryDate),
		zap.Bool("gift", order.IsGift),
	)
	return order, nil
}

// findOrCreateCustomer, telefonla müşteriyi bulur. Yoksa oluşturur; varsa
// ve kayıtta e-posta yoksa istekteki e-postayı ekler.
func (s *orderService) findOrCreateCustomer(ctx context.Context, repo repository.CustomerRepository, req *models.CreateOrderRequest) (*models.Customer, error) {
	customer, err := repo.GetByPhone(ctx, req.CustomerPhone)
	if errors.Is(err, pkg.ErrNotFound) {
		customer = &models.Customer{
			Name:  req.CustomerName,
			Phone: req.CustomerPhone,
			Email: req.CustomerEmail,
		}
		if err := repo.Create(ctx, customer); err != nil {
			return nil, err
		}
		return customer, nil
	}
	if err != nil {
		return nil, err
	}

	if customer.Email == "" && req.CustomerEmail != "" {
		customer.Email = req.CustomerEmail
		if err := repo.Update(ctx, customer); err != nil {
			return nil, err
		}
	}
	return customer, nil
}

// insertWithNumber, SP-YYMMDD-XXXX numarasıyla siparişi ekler; numara
// çakışırsa yenisini dener.
func (s *orderService) insertWithNumber(ctx context.Context, repo repository.OrderRepository, order *models.Order) error {
	var err error
	for range orderNumberAttempts {
		order.OrderNumber = newOrderNumber(s.now())
		err = repo.Create(ctx, order)
		if !errors.Is(err, pkg.ErrAlreadyExists) {
			return err
		}
	}
	return fmt.Errorf("%w: could not allocate a unique order number: %v", pkg.ErrInternal, err)
}

func newOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return "SP-" + t.Format("060102") + "-" + suffix
}

func (s *orderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

func (s *orderService) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.orderRepo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
}

func (s *orderService) List(ctx context.Context, filter models.OrderFilter) (*models.OrderList, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: invalid status filter", pkg.ErrBadRequest)
	}
	for _, d := range []string{filter.From, filter.To} {
		if d == "" {
			continue
		}
		if _, err := models.ParseDate(d); err != nil {
			return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
		}
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.OrderList{Orders: orders, Total: total}, nil
}

func (s *orderService) Update(ctx context.Context, id string, req *models.UpdateOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	var oldDate string
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r := newTxRepos(tx)

		order, err := r.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		oldDate = order.DeliveryDate
		loadChanged := false

		category, err := lookupCategory(ctx, r.categories, order.CategoryID)
		if err != nil {
			return err
		}
		if req.CategoryID != nil && *req.CategoryID != order.CategoryID {
			if category, err = lookupCategory(ctx, r.categories, *req.CategoryID); err != nil {
				return err
			}
			order.CategoryID = category.ID
			loadChanged = true
		}
		if req.Quantity != nil && *req.Quantity != order.Quantity {
			order.Quantity = *req.Quantity
			loadChanged = true
		}
		if req.DeliveryDate != nil && *req.DeliveryDate != order.DeliveryDate {
			order.DeliveryDate = *req.DeliveryDate
			loadChanged = true
		}
		if req.Note != nil {
			order.Note = *req.Note
		}

		var product *models.Product
		if req.ProductID != nil {
			if *req.ProductID == "" {
				order.ProductID = nil
			} else {
				order.ProductID = req.ProductID
			}
		}
		if order.ProductID != nil {
			if product, err = lookupProduct(ctx, r.products, *order.ProductID, order.CategoryID); err != nil {
				return err
			}
		}

		switch {
		case order.IsGift:
			if req.TotalPrice != nil && !req.TotalPrice.IsZero() {
				return fmt.Errorf("%w: gift orders cannot have a price", pkg.ErrBadRequest)
			}
		case req.TotalPrice != nil:
			order.TotalPrice = *req.TotalPrice
		case product != nil && (req.ProductID != nil || req.Quantity != nil):
			order.TotalPrice = product.Price.Mul(decimal.NewFromInt(int64(order.Quantity)))
		}

		if loadChanged && order.Status.CountsTowardWorkload() && !req.Force {
			score, err := r.orders.DayScore(ctx, order.DeliveryDate, order.ID)
			if err != nil {
				return err
			}
			if err := capacityError(s.calendar.Workload(), order.DeliveryDate, score, order.Quantity*category.WorkloadPoints); err != nil {
				return err
			}
		}

		return r.orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.calendarChanged(oldDate, order.DeliveryDate)
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpOrderUpdate, Data: order})
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id, adminID string, req *models.UpdateOrderStatusRequest) (*models.StatusChangeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	var (
		from     models.OrderStatus
		outcome  loyaltyOutcome
		customer *models.Customer
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r := newTxRepos(tx)

		order, err := r.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		from = order.Status
		if from == req.Status {
			return fmt.Errorf("%w: order is already %s", pkg.ErrBadRequest, from)
		}

		// İptalden dönen sipariş günün iş yüküne yeniden eklenir.
		if from == models.OrderStatusCancelled && !req.Force {
			score, err := r.orders.DayScore(ctx, order.DeliveryDate, order.ID)
			if err != nil {
				return err
			}
			if err := capacityError(s.calendar.Workload(), order.DeliveryDate, score, order.WorkloadPoints); err != nil {
				return err
			}
		}

		if customer, err = r.customers.GetByID(ctx, order.CustomerID); err != nil {
			return err
		}
		if outcome, err = s.loyalty.apply(customer, order.IsGift, from, req.Status); err != nil {
			return err
		}
		if outcome != (loyaltyOutcome{}) {
			if err := r.customers.UpdateLoyalty(ctx, customer); err != nil {
				return err
			}
		}

		order.Status = req.Status
		switch {
		case req.Status == models.OrderStatusCompleted:
			t := s.now().UTC()
			order.CompletedAt = &t
		case from == models.OrderStatusCompleted:
			order.CompletedAt = nil
		}
		if err := r.orders.Update(ctx, order); err != nil {
			return err
		}

		return r.orders.AddStatusChange(ctx, &models.OrderStatusChange{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   req.Status,
			AdminID:    adminID,
		})
	})
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &models.StatusChangeResult{
		Order:       order,
		Customer:    customer,
		GiftGranted: outcome.GiftGranted,
		GiftRevoked: outcome.GiftRevoked,
	}

	s.recordOutcome(from, req.Status, outcome)
	if from == models.OrderStatusCancelled || req.Status == models.OrderStatusCancelled {
		s.calendarChanged(order.DeliveryDate)
	}
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpOrderStatusUpdate, Data: result})

	if outcome.GiftGranted {
		s.hub.BroadcastToAll(ws.Event{Op: ws.OpGiftGranted, Data: customer})
		s.notifyGift(customer)
	}

	s.log.Info("order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(from)),
		zap.String("to", string(req.Status)),
		zap.String("admin_id", adminID),
		zap.Bool("gift_granted", outcome.GiftGranted),
		zap.Bool("gift_revoked", outcome.GiftRevoked),
	)
	return result, nil
}

// Delete, siparişi siler. Silmeden önce sipariş iptal edilmiş gibi sadakat
// telafisi uygulanır: tamamlanmışsa sayaç geri alınır, hediye siparişiyse
// hediye iade edilir.
func (s *orderService) Delete(ctx context.Context, id string) error {
	var (
		order   *models.Order
		outcome loyaltyOutcome
	)
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r := newTxRepos(tx)

		var err error
		if order, err = r.orders.GetByID(ctx, id); err != nil {
			return err
		}

		customer, err := r.customers.GetByID(ctx, order.CustomerID)
		if err != nil {
			return err
		}
		if outcome, err = s.loyalty.apply(customer, order.IsGift, order.Status, models.OrderStatusCancelled); err != nil {
			return err
		}
		if outcome != (loyaltyOutcome{}) {
			if err := r.customers.UpdateLoyalty(ctx, customer); err != nil {
				return err
			}
		}

		return r.orders.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.recordOutcome(order.Status, models.OrderStatusCancelled, outcome)
	s.calendarChanged(order.DeliveryDate)
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpOrderDelete, Data: ws.IDData{ID: id}})

	s.log.Info("order deleted", zap.String("order_number", order.OrderNumber))
	return nil
}

func (s *orderService) History(ctx context.Context, id string) ([]models.OrderStatusChange, error) {
	if _, err := s.orderRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.orderRepo.ListStatusChanges(ctx, id)
}

func (s *orderService) recordOutcome(from, to models.OrderStatus, outcome loyaltyOutcome) {
	if from != to {
		metrics.OrderTransition(string(from), string(to))
	}
	if outcome.GiftGranted {
		metrics.LoyaltyEvent(metrics.LoyaltyGranted)
	}
	if outcome.GiftRevoked {
		metrics.LoyaltyEvent(metrics.LoyaltyRevoked)
	}
	if outcome.GiftRedeemed {
		metrics.LoyaltyEvent(metrics.LoyaltyRedeemed)
	}
	if outcome.GiftRefunded {
		metrics.LoyaltyEvent(metrics.LoyaltyRefunded)
	}
}

// calendarChanged, takvim önbelleğini temizler ve panele haber verir.
func (s *orderService) calendarChanged(dates ...string) {
	uniq := make([]string, 0, len(dates))
	for _, d := range dates {
		if d != "" && !containsString(uniq, d) {
			uniq = append(uniq, d)
		}
	}
	s.calendar.Invalidate(uniq...)
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpCalendarUpdate, Data: ws.CalendarUpdateData{Dates: uniq}})
}

// notifyGift, hediye e-postasını istekten bağımsız gönderir; hata sadece loglanır.
func (s *orderService) notifyGift(c *models.Customer) {
	if c.Email == "" {
		return
	}
	notice := email.GiftNotice{
		ToEmail:        c.Email,
		CustomerName:   c.Name,
		AvailableGifts: c.AvailableGifts(),
		GiftEvery:      s.loyalty.GiftEvery,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mailer.SendGiftEarned(ctx, notice); err != nil {
			s.log.Warn("failed to send gift email", zap.String("customer_id", c.ID), zap.Error(err))
		}
	}()
}

func lookupCategory(ctx context.Context, repo repository.CategoryRepository, id string) (*models.Category, error) {
	category, err := repo.GetByID(ctx, id)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: category not found", pkg.ErrBadRequest)
	}
	return category, err
}

func lookupProduct(ctx context.Context, repo repository.ProductRepository, id, categoryID string) (*models.Product, error) {
	product, err := repo.GetByID(ctx, id)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: product not found", pkg.ErrBadRequest)
	}
	if err != nil {
		return nil, err
	}
	if product.CategoryID != categoryID {
		return nil, fmt.Errorf("%w: product does not belong to the selected category", pkg.ErrBadRequest)
	}
	return product, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
