package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReportRange, teslim tarihine göre kapalı aralık [From, To].
type ReportRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Validate: boş uçlar son 30 günle doldurulur; aralık en fazla iki yıl.
func (r *ReportRange) Validate(now time.Time) error {
	if r.To == "" {
		r.To = now.Format(DateLayout)
	}
	to, err := ParseDate(r.To)
	if err != nil {
		return err
	}
	if r.From == "" {
		r.From = to.AddDate(0, 0, -29).Format(DateLayout)
	}
	from, err := ParseDate(r.From)
	if err != nil {
		return err
	}
	if from.After(to) {
		return fmt.Errorf("from must not be after to")
	}
	if to.Sub(from) > 2*366*24*time.Hour {
		return fmt.Errorf("report range must not exceed two years")
	}
	return nil
}

// SalesLine, rapor hesaplamasının ham satırı: aralıktaki bir sipariş.
type SalesLine struct {
	OrderID      string
	DeliveryDate string
	CategoryID   string
	CategoryName string
	Quantity     int
	TotalPrice   decimal.Decimal
	Status       OrderStatus
	IsGift       bool
}

// SalesSummary, aralığın özet göstergeleri. Ciro yalnızca tamamlanan
// siparişlerden hesaplanır.
type SalesSummary struct {
	Range             ReportRange         `json:"range"`
	TotalOrders       int                 `json:"total_orders"`
	ByStatus          map[OrderStatus]int `json:"by_status"`
	CompletedQuantity int                 `json:"completed_quantity"`
	Revenue           decimal.Decimal     `json:"revenue"`
	AverageOrderValue decimal.Decimal     `json:"average_order_value"`
	GiftsRedeemed     int                 `json:"gifts_redeemed"`
	NewCustomers      int                 `json:"new_customers"`
}

// SalesPoint, günlük veya aylık seride bir nokta.
type SalesPoint struct {
	Period   string          `json:"period"`
	Orders   int             `json:"orders"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// CategorySales, kategori kırılımı.
type CategorySales struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Orders       int             `json:"orders"`
	Quantity     int             `json:"quantity"`
	Revenue      decimal.Decimal `json:"revenue"`
	Share        float64         `json:"share"` // ciro payı, 0..1
}

// PublicStats, vitrindeki sayaçlar.
type PublicStats struct {
	Products        int `json:"products"`
	Categories      int `json:"categories"`
	CompletedOrders int `json:"completed_orders"`
	Customers       int `json:"customers"`
}
