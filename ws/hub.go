package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/metrics"
)

// EventPublisher, service'lerin olay yayınlamak için bağımlı olduğu interface.
type EventPublisher interface {
	BroadcastToAll(event Event)
	BroadcastToAdmin(adminID string, event Event)
	OnlineAdminIDs() []string
}

// Hub, bağlı panel client'larını tutar. Bir yönetici birden fazla sekmeden
// bağlanabilir; clients adminID → client kümesidir.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	seq atomic.Int64
	log *zap.Logger
}

// NewHub, Hub oluşturur. Run ayrı goroutine'de başlatılmalıdır.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger.Named("ws"),
	}
}

// Run, kayıt/çıkış döngüsü. Shutdown çağrılınca döner.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.adminID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.adminID] = set
	}
	set[c] = struct{}{}
	metrics.WSConnected()

	h.log.Debug("client connected", zap.String("admin_id", c.adminID), zap.Int("connections", len(set)))
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.adminID]
	if !ok {
		return
	}
	if _, exists := set[c]; !exists {
		return
	}
	delete(set, c)
	close(c.send)
	metrics.WSDisconnected()

	if len(set) == 0 {
		delete(h.clients, c.adminID)
	}
	h.log.Debug("client disconnected", zap.String("admin_id", c.adminID), zap.Int("remaining", len(set)))
}

// drop, yavaş client'ı hub döngüsü üzerinden çıkarır. RLock tutulurken
// çağrıldığı için ayrı goroutine'de gönderilir.
func (h *Hub) drop(c *Client) {
	go func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal event", zap.String("op", event.Op), zap.Error(err))
		return nil, false
	}
	return data, true
}

// BroadcastToAll, tüm bağlı panel oturumlarına gönderir.
func (h *Hub) BroadcastToAll(event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, set := range h.clients {
		for c := range set {
			h.deliver(c, data)
		}
	}
}

// BroadcastToAdmin, tek yöneticinin tüm sekmelerine gönderir.
func (h *Hub) BroadcastToAdmin(adminID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[adminID] {
		h.deliver(c, data)
	}
}

func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Warn("send buffer full, dropping client", zap.String("admin_id", c.adminID))
		h.drop(c)
	}
}

// OnlineAdminIDs, en az bir bağlantısı olan yöneticiler.
func (h *Hub) OnlineAdminIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// ConnectionCount, toplam açık bağlantı.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Shutdown, Run döngüsünü durdurur. Her client'ın WritePump'ı done
// kanalını görüp bağlantıyı kapatır.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for _, set := range h.clients {
			for range set {
				metrics.WSDisconnected()
			}
		}
		h.clients = make(map[string]map[*Client]struct{})
		h.log.Info("hub shut down")
	})
}
