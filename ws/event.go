// Package ws, yönetim paneline canlı bildirimler: yeni sipariş, durum
// değişikliği, yeni iletişim mesajı vb.
//
// Service bir kayıt yazdıktan sonra EventPublisher ile olayı yayınlar;
// Hub olayı bağlı tüm panel oturumlarına iletir. Bağlantı tek yönlüdür,
// client'tan sadece heartbeat beklenir.
package ws

// Event, WebSocket üzerinden giden/gelen mesaj.
// Seq her giden olayda artar; panel eksik olay tespit edince listeyi yeniler.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server
const (
	OpHeartbeat = "heartbeat"
)

// Server → Client
const (
	OpReady        = "ready"
	OpHeartbeatAck = "heartbeat_ack"

	OpOrderCreate       = "order_create"
	OpOrderUpdate       = "order_update"
	OpOrderStatusUpdate = "order_status_update"
	OpOrderDelete       = "order_delete"
	OpGiftGranted       = "gift_granted"
	OpCalendarUpdate    = "calendar_update" // gün(ler)in Puan'ı değişti

	OpMessageCreate = "message_create"
	OpMessageUpdate = "message_update"
	OpMessageDelete = "message_delete"

	OpCategoryCreate = "category_create"
	OpCategoryUpdate = "category_update"
	OpCategoryDelete = "category_delete"
	OpProductCreate  = "product_create"
	OpProductUpdate  = "product_update"
	OpProductDelete  = "product_delete"

	OpSessionRevoked = "session_revoked" // şifre değişti, panel yeniden giriş istemeli
)

// ReadyData, bağlantı kurulunca gönderilen ilk olayın payload'ı.
type ReadyData struct {
	AdminID        string   `json:"admin_id"`
	Username       string   `json:"username"`
	OnlineAdminIDs []string `json:"online_admin_ids"`
	UnreadMessages int      `json:"unread_messages"`
}

// IDData, silme olayları için.
type IDData struct {
	ID string `json:"id"`
}

// CalendarUpdateData, Puan'ı değişen günler.
type CalendarUpdateData struct {
	Dates []string `json:"dates"`
}
