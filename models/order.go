package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus, siparişin yaşam döngüsündeki durumu.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "beklemede"
	OrderStatusConfirmed OrderStatus = "onaylandi"
	OrderStatusPreparing OrderStatus = "hazirlaniyor"
	OrderStatusCompleted OrderStatus = "tamamlandi"
	OrderStatusCancelled OrderStatus = "iptal"
)

// OrderStatuses, arayüzde gösterim sırasına göre tüm durumlar.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func (s OrderStatus) IsValid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// CountsTowardWorkload, iptal edilmemiş her sipariş mutfakta yer kaplar.
func (s OrderStatus) CountsTowardWorkload() bool {
	return s.IsValid() && s != OrderStatusCancelled
}

// Order, teslim tarihi, kategori ve adet bilgisi taşıyan pastane siparişi.
type Order struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"order_number"`
	CustomerID     string          `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerPhone  string          `json:"customer_phone"`
	CategoryID     string          `json:"category_id"`
	CategoryName   string          `json:"category_name"`
	ProductID      *string         `json:"product_id"`
	ProductName    *string         `json:"product_name"`
	Quantity       int             `json:"quantity"`
	DeliveryDate   string          `json:"delivery_date"`
	Note           string          `json:"note"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Status         OrderStatus     `json:"status"`
	IsGift         bool            `json:"is_gift"`
	WorkloadPoints int             `json:"workload_points"` // adet × kategori Puan'ı
	CompletedAt    *time.Time      `json:"completed_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderFilter, admin sipariş listesi filtresi.
type OrderFilter struct {
	Status     OrderStatus
	From       string // delivery_date >= From
	To         string // delivery_date <= To
	CustomerID string
	Search     string // sipariş no, müşteri adı veya telefon
	Limit      int
	Offset     int
}

// OrderList, sayfalı sipariş listesi.
type OrderList struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}

// OrderStatusChange, order_status_history satırı.
type OrderStatusChange struct {
	ID         string      `json:"id"`
	OrderID    string      `json:"order_id"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status"`
	AdminID    string      `json:"admin_id"`
	CreatedAt  time.Time   `json:"created_at"`
}

// StatusChangeResult, durum değişikliğinin sadakat tarafındaki etkisi.
type StatusChangeResult struct {
	Order       *Order    `json:"order"`
	Customer    *Customer `json:"customer"`
	GiftGranted bool      `json:"gift_granted"`
	GiftRevoked bool      `json:"gift_revoked"`
}

// CreateOrderRequest, admin panelinden sipariş girişi.
//
// Müşteri telefon numarasıyla bulunur, yoksa oluşturulur. ProductID verilirse
// tutar ürün fiyatı × adet olarak hesaplanır; verilmezse TotalPrice kullanılır.
// UseGift, müşterinin kazanılmış hediyesini bu siparişte kullanır (tutar 0).
// Force, günün kapasitesi aşılsa bile siparişi kaydeder.
type CreateOrderRequest struct {
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	CustomerEmail string           `json:"customer_email"`
	CategoryID    string           `json:"category_id"`
	ProductID     *string          `json:"product_id"`
	Quantity      int              `json:"quantity"`
	DeliveryDate  string           `json:"delivery_date"`
	Note          string           `json:"note"`
	TotalPrice    *decimal.Decimal `json:"total_price"`
	UseGift       bool             `json:"use_gift"`
	Force         bool             `json:"force"`
}

func (r *CreateOrderRequest) Validate() error {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	if err := checkLen("customer name", r.CustomerName, 2, 100); err != nil {
		return err
	}

	phone, err := NormalizePhone(r.CustomerPhone)
	if err != nil {
		return err
	}
	r.CustomerPhone = phone

	r.CustomerEmail = strings.TrimSpace(r.CustomerEmail)
	if r.CustomerEmail != "" && !isEmail(r.CustomerEmail) {
		return fmt.Errorf("invalid email address")
	}

	r.CategoryID = strings.TrimSpace(r.CategoryID)
	if r.CategoryID == "" {
		return fmt.Errorf("category_id is required")
	}
	trimPtr(r.ProductID)
	if r.ProductID != nil && *r.ProductID == "" {
		r.ProductID = nil
	}

	if r.Quantity < 1 || r.Quantity > 1000 {
		return fmt.Errorf("quantity must be between 1 and 1000")
	}

	r.DeliveryDate = strings.TrimSpace(r.DeliveryDate)
	if _, err := ParseDate(r.DeliveryDate); err != nil {
		return err
	}

	r.Note = strings.TrimSpace(r.Note)
	if err := checkLen("note", r.Note, 0, 1000); err != nil {
		return err
	}

	if r.TotalPrice != nil {
		if err := validatePrice(*r.TotalPrice); err != nil {
			return err
		}
	}
	return nil
}

// UpdateOrderRequest, sipariş detaylarının kısmi güncellemesi. Durum
// değişikliği ayrı uç noktadan (UpdateOrderStatusRequest) yapılır.
type UpdateOrderRequest struct {
	CategoryID   *string          `json:"category_id"`
	ProductID    *string          `json:"product_id"` // "" → ürünü kaldır
	Quantity     *int             `json:"quantity"`
	DeliveryDate *string          `json:"delivery_date"`
	Note         *string          `json:"note"`
	TotalPrice   *decimal.Decimal `json:"total_price"`
	Force        bool             `json:"force"`
}

func (r *UpdateOrderRequest) Validate() error {
	trimPtr(r.CategoryID)
	trimPtr(r.ProductID)
	trimPtr(r.DeliveryDate)
	trimPtr(r.Note)

	if r.CategoryID != nil && *r.CategoryID == "" {
		return fmt.Errorf("category_id cannot be empty")
	}
	if r.Quantity != nil && (*r.Quantity < 1 || *r.Quantity > 1000) {
		return fmt.Errorf("quantity must be between 1 and 1000")
	}
	if r.DeliveryDate != nil {
		if _, err := ParseDate(*r.DeliveryDate); err != nil {
			return err
		}
	}
	if r.Note != nil {
		if err := checkLen("note", *r.Note, 0, 1000); err != nil {
			return err
		}
	}
	if r.TotalPrice != nil {
		if err := validatePrice(*r.TotalPrice); err != nil {
			return err
		}
	}
	return nil
}

// UpdateOrderStatusRequest, durum değişikliği. İptalden geri alınan sipariş
// tekrar iş yüküne girer; Force kapasite kontrolünü atlar.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
	Force  bool        `json:"force"`
}

func (r *UpdateOrderStatusRequest) Validate() error {
	r.Status = OrderStatus(strings.TrimSpace(string(r.Status)))
	if !r.Status.IsValid() {
		return fmt.Errorf("invalid order status: %q", r.Status)
	}
	return nil
}
