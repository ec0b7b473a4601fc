package models

import (
	"fmt"
	"strings"
	"time"
)

// ContactMessage, vitrindeki iletişim formundan gelen mesaj.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	IPAddress string    `json:"ip_address"`
	IsRead    bool      `json:"is_read"`
	IsSpam    bool      `json:"is_spam"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactFilter, admin mesaj listesi filtresi.
type ContactFilter struct {
	UnreadOnly  bool
	IncludeSpam bool
	Limit       int
	Offset      int
}

// ContactMessageList, sayfalı mesaj listesi.
type ContactMessageList struct {
	Messages []ContactMessage `json:"messages"`
	Total    int              `json:"total"`
	Unread   int              `json:"unread"`
}

// CreateContactMessageRequest, iletişim formu gönderimi.
// Website alanı formda gizlidir (honeypot); dolu gelirse gönderen bottur.
type CreateContactMessageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Website string `json:"website"`
}

func (r *CreateContactMessageRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if err := checkLen("name", r.Name, 2, 100); err != nil {
		return err
	}

	r.Email = strings.TrimSpace(r.Email)
	if !isEmail(r.Email) {
		return fmt.Errorf("invalid email address")
	}

	r.Phone = strings.TrimSpace(r.Phone)
	if r.Phone != "" {
		phone, err := NormalizePhone(r.Phone)
		if err != nil {
			return err
		}
		r.Phone = phone
	}

	r.Subject = strings.TrimSpace(r.Subject)
	if err := checkLen("subject", r.Subject, 0, 150); err != nil {
		return err
	}

	r.Body = strings.TrimSpace(r.Body)
	return checkLen("message", r.Body, 10, 2000)
}
