package ws

import (
	"context"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg/logger"
)

// TokenValidator, access token doğrulaması. services.AuthService karşılar;
// ws paketi services'i import etmez.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// UnreadCounter, ready olayındaki okunmamış mesaj sayısı için.
type UnreadCounter interface {
	UnreadCount(ctx context.Context) (int, error)
}

// Handler, /ws bağlantılarını kabul eder.
type Handler struct {
	hub      *Hub
	tokens   TokenValidator
	unread   UnreadCounter
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler, allowedOrigins boşsa sadece aynı host'tan gelen bağlantılar kabul edilir.
func NewHandler(hub *Hub, tokens TokenValidator, unread UnreadCounter, allowedOrigins []string) *Handler {
	h := &Handler{
		hub:    hub,
		tokens: tokens,
		unread: unread,
		log:    logger.Named("ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// HandleConnection godoc
// GET /ws?token=ACCESS_TOKEN
//
// Tarayıcı WebSocket isteğine Authorization header'ı ekleyemediği için
// token query parametresiyle gelir.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.tokens.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.String("admin_id", claims.AdminID), zap.Error(err))
		return
	}

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		adminID: claims.AdminID,
		send:    make(chan []byte, sendBufferSize),
		log:     h.log,
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	ready := ReadyData{
		AdminID:        claims.AdminID,
		Username:       claims.Username,
		OnlineAdminIDs: h.hub.OnlineAdminIDs(),
	}
	if h.unread != nil {
		if n, err := h.unread.UnreadCount(r.Context()); err == nil {
			ready.UnreadMessages = n
		}
	}
	client.sendEvent(Event{Op: OpReady, Data: ready})

	go client.WritePump()
	client.ReadPump()
}
