package models

import "time"

// Session, refresh token oturumu. Refresh token her kullanımda döndürülür
// (rotation); logout satırı siler.
type Session struct {
	ID           string    `json:"id"`
	AdminID      string    `json:"admin_id"`
	RefreshToken string    `json:"-"`
	UserAgent    string    `json:"user_agent"`
	IPAddress    string    `json:"ip_address"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// ClientMeta, oturum açan istemcinin bilgileri; sessions satırına yazılır.
type ClientMeta struct {
	IP        string
	UserAgent string
}
