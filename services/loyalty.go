package services

import (
	"fmt"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
)

// Loyalty, sadakat sayaçlarının aritmetiği. Her GiftEvery'inci tamamlanan
// sipariş bir hediye kazandırır.
//
// Metodlar müşteri struct'ını yerinde değiştirir; kalıcı hale getirmek
// çağıranın işidir (sipariş durumu ile aynı transaction'da).
// Hediye siparişleri tamamlanan sayacına dahil edilmez.
type Loyalty struct {
	GiftEvery int
}

// RecordCompletion, hediye olmayan bir sipariş tamamlandı. Bu tamamlanma
// yeni bir hediye kazandırdıysa true döner.
func (l Loyalty) RecordCompletion(c *models.Customer) bool {
	c.CompletedOrders++
	if c.CompletedOrders%l.GiftEvery == 0 {
		c.GiftsEarned++
		return true
	}
	return false
}

// RevertCompletion, tamamlanmış sipariş başka duruma alındı. Geri alınan
// tamamlanma bir hediye kazandırmışsa o hediye de geri alınır ve true döner.
// Hediye zaten kullanılmışsa geri alınamaz; ErrConflict döner ve müşteri
// değişmez.
func (l Loyalty) RevertCompletion(c *models.Customer) (bool, error) {
	if c.CompletedOrders <= 0 {
		return false, fmt.Errorf("%w: customer has no completed orders to revert", pkg.ErrConflict)
	}

	revoke := c.CompletedOrders%l.GiftEvery == 0
	if revoke {
		if c.GiftsEarned-1 < c.GiftsUsed {
			return false, fmt.Errorf("%w: the gift earned by this order has already been used", pkg.ErrConflict)
		}
		c.GiftsEarned--
	}
	c.CompletedOrders--
	return revoke, nil
}

// RedeemGift, bir hediyeyi kullanır.
func (l Loyalty) RedeemGift(c *models.Customer) error {
	if c.AvailableGifts() <= 0 {
		return fmt.Errorf("%w: customer has no available gift", pkg.ErrConflict)
	}
	c.GiftsUsed++
	return nil
}

// RefundGift, iptal edilen hediye siparişinin hediyesini iade eder.
func (l Loyalty) RefundGift(c *models.Customer) {
	if c.GiftsUsed > 0 {
		c.GiftsUsed--
	}
}

// Progress, vitrinde gösterilecek ilerleme özeti.
func (l Loyalty) Progress(c *models.Customer) models.LoyaltyProgress {
	return models.LoyaltyProgress{
		MaskedName:      models.MaskName(c.Name),
		CompletedOrders: c.CompletedOrders,
		GiftEvery:       l.GiftEvery,
		UntilNextGift:   l.GiftEvery - c.CompletedOrders%l.GiftEvery,
		GiftsEarned:     c.GiftsEarned,
		AvailableGifts:  c.AvailableGifts(),
	}
}

// loyaltyOutcome, bir durum geçişinin sadakat etkisi.
type loyaltyOutcome struct {
	GiftGranted  bool
	GiftRevoked  bool
	GiftRedeemed bool
	GiftRefunded bool
}

// apply, siparişin from → to geçişini müşteri sayaçlarına uygular. Önce
// çıkılan durumun etkisi geri alınır, sonra girilen durumunki eklenir.
// Hata dönerse müşteri kısmen değişmiş olabilir; çağıran transaction'ı
// geri alır.
func (l Loyalty) apply(c *models.Customer, isGift bool, from, to models.OrderStatus) (loyaltyOutcome, error) {
	var out loyaltyOutcome
	if from == to {
		return out, nil
	}

	if isGift {
		switch {
		case to == models.OrderStatusCancelled:
			l.RefundGift(c)
			out.GiftRefunded = true
		case from == models.OrderStatusCancelled:
			if err := l.RedeemGift(c); err != nil {
				return out, err
			}
			out.GiftRedeemed = true
		}
		return out, nil
	}

	if from == models.OrderStatusCompleted {
		revoked, err := l.RevertCompletion(c)
		if err != nil {
			return out, err
		}
		out.GiftRevoked = revoked
	}
	if to == models.OrderStatusCompleted {
		out.GiftGranted = l.RecordCompletion(c)
	}
	return out, nil
}
