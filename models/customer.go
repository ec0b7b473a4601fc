package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Customer, sipariş veren müşteri ve sadakat sayaçları.
//
// Sayaçlar arasındaki değişmez: 0 <= GiftsUsed <= GiftsEarned.
// GiftsEarned, CompletedOrders / GiftEvery'den büyük olamaz; sayaçlar yalnızca
// sipariş durum geçişleriyle (services.Loyalty) değişir.
type Customer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	Note            string    `json:"note"`
	CompletedOrders int       `json:"completed_orders"`
	GiftsEarned     int       `json:"gifts_earned"`
	GiftsUsed       int       `json:"gifts_used"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AvailableGifts, kazanılmış ama henüz kullanılmamış hediye sayısı.
func (c *Customer) AvailableGifts() int {
	return c.GiftsEarned - c.GiftsUsed
}

// LoyaltyProgress, vitrindeki sadakat sorgusunun döndüğü özet. Telefon
// numarası ile sorgulandığı için isim maskelenir.
type LoyaltyProgress struct {
	MaskedName      string `json:"masked_name"`
	CompletedOrders int    `json:"completed_orders"`
	GiftEvery       int    `json:"gift_every"`
	UntilNextGift   int    `json:"until_next_gift"`
	GiftsEarned     int    `json:"gifts_earned"`
	AvailableGifts  int    `json:"available_gifts"`
}

// CustomerFilter, admin müşteri listesi.
type CustomerFilter struct {
	Search string
	Limit  int
	Offset int
}

// CustomerList, sayfalı müşteri listesi.
type CustomerList struct {
	Customers []Customer `json:"customers"`
	Total     int        `json:"total"`
}

type UpdateCustomerRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Note  *string `json:"note"`
}

func (r *UpdateCustomerRequest) Validate() error {
	trimPtr(r.Name)
	trimPtr(r.Email)
	trimPtr(r.Note)

	if r.Name != nil {
		if err := checkLen("name", *r.Name, 2, 100); err != nil {
			return err
		}
	}
	if r.Email != nil && *r.Email != "" && !isEmail(*r.Email) {
		return fmt.Errorf("invalid email address")
	}
	if r.Note != nil {
		if err := checkLen("note", *r.Note, 0, 1000); err != nil {
			return err
		}
	}
	return nil
}

// NormalizePhone, Türkiye cep/sabit numaralarını 10 haneye indirger:
// "+90 (532) 123 45 67", "0532 123 4567" ve "5321234567" aynı müşteridir.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			digits.WriteByte(c)
		case c >= utf8.RuneSelf:
			// Arap-Hint ya da tam genişlik rakamlar numara sayılmaz.
			r, _ := utf8.DecodeRuneInString(raw[i:])
			if unicode.IsDigit(r) {
				return "", fmt.Errorf("phone number must contain only ASCII digits")
			}
		}
	}
	d := digits.String()

	switch {
	case len(d) == 12 && strings.HasPrefix(d, "90"):
		d = d[2:]
	case len(d) == 11 && strings.HasPrefix(d, "0"):
		d = d[1:]
	}

	if len(d) != 10 || d[0] == '0' {
		return "", fmt.Errorf("phone number must have 10 digits")
	}
	return d, nil
}

// MaskName, "Ayşe Yılmaz" → "A*** Y*****".
func MaskName(name string) string {
	parts := strings.Fields(name)
	for i, p := range parts {
		runes := []rune(p)
		if len(runes) <= 1 {
			continue
		}
		parts[i] = string(runes[0]) + strings.Repeat("*", len(runes)-1)
	}
	return strings.Join(parts, " ")
}
