package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second

	// pongWait: panel 30 sn'de bir heartbeat gönderir; üç kaçırma bağlantıyı düşürür.
	pongWait = 90 * time.Second

	maxMessageSize = 1024
	sendBufferSize = 64
)

// Client, tek bir panel sekmesinin WebSocket bağlantısı.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	adminID string
	send    chan []byte
	mu      sync.Mutex
	log     *zap.Logger
}

// ReadPump, client'tan gelen mesajları okur. Bağlantı kapanınca client'ı
// hub'dan çıkarır. Handler goroutine'inde bloklayarak çalışır.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("unexpected close", zap.String("admin_id", c.adminID), zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}

		switch event.Op {
		case OpHeartbeat:
			if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				return
			}
			if err := c.writeEvent(Event{Op: OpHeartbeatAck}); err != nil {
				return
			}
		default:
			c.log.Debug("ignoring client op", zap.String("op", event.Op))
		}
	}
}

// writeEvent, olayı send kuyruğunu atlayarak doğrudan yazar. Hub client'ı
// çıkarıp send'i kapatmış olabileceği için ReadPump bunu kullanır.
func (c *Client) writeEvent(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

// sendEvent, kayıttan hemen sonra tek client'a olay kuyruğa ekler (seq verilmez).
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.drop(c)
	}
}

// WritePump, send kanalındaki mesajları bağlantıya yazar. Kanal kapanınca
// veya hub durunca close frame gönderip döner.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.writeClose()
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.hub.done:
			c.writeClose()
			return
		}
	}
}

func (c *Client) writeClose() {
	_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
